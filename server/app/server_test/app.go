package server_test

import (
	"github.com/benbjohnson/clock"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/api/rest/server"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/credential"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/scmtest"
)

type TestServer struct {
	FakeSCM                     *scmtest.FakeSCM
	Clock                       *clock.Mock
	CredentialStore             credential.Store
	FactoryService              services.FactoryService
	SCMFileService              services.SCMFileService
	PersonalAccessTokenManager  services.PersonalAccessTokenManager
	AuthorisationRequestManager services.AuthorisationRequestManager
	LogFactory                  logger.LogFactory

	AppAPIServer *server.AppAPIServer
}

func NewTestServer(
	fakeSCM *scmtest.FakeSCM,
	clk *clock.Mock,
	credentialStore credential.Store,
	factoryService services.FactoryService,
	scmFileService services.SCMFileService,
	tokens services.PersonalAccessTokenManager,
	rejections services.AuthorisationRequestManager,
	logFactory logger.LogFactory,
	appAPIServer *server.AppAPIServer,
) *TestServer {
	return &TestServer{
		FakeSCM:                     fakeSCM,
		Clock:                       clk,
		CredentialStore:             credentialStore,
		FactoryService:              factoryService,
		SCMFileService:              scmFileService,
		PersonalAccessTokenManager:  tokens,
		AuthorisationRequestManager: rejections,
		LogFactory:                  logFactory,
		AppAPIServer:                appAPIServer,
	}
}

// MakeFetcher returns a fetcher that sends every SCM request to the fake.
func MakeFetcher(fakeSCM *scmtest.FakeSCM) *scm.Fetcher {
	return fakeSCM.Fetcher()
}

func MakeClock() *clock.Mock {
	return clock.NewMock()
}

func MakeLogFactory() logger.LogFactory {
	return logger.NoOpLogFactory
}
