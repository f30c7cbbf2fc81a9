//go:build wireinject
// +build wireinject

package server_test

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/wire"

	"github.com/devboard/devboard/server/api/rest/middleware"
	rest_server "github.com/devboard/devboard/server/api/rest/server"
	"github.com/devboard/devboard/server/api/rest/server/servertest"
	"github.com/devboard/devboard/server/app"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/credential"
	"github.com/devboard/devboard/server/services/factory"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
	"github.com/devboard/devboard/server/services/scm/scmtest"
	"github.com/devboard/devboard/server/services/scm_file"
)

func New(ctx context.Context, config *app.ServerConfig, fakeSCM *scmtest.FakeSCM) (*TestServer, func(), error) {
	panic(wire.Build(
		NewTestServer,
		wire.FieldsOf(new(*app.ServerConfig), "AppAPIConfig", "CORSAllowedOrigins", "IncludeErrorDetail", "FactoryConfig", "OAuthConfig", "TokenSourceConfig", "CredentialStoreConfig", "IdentityJWTKey"),
		app.ProvidersConfig,
		MakeFetcher,
		scm.NewOAuthLinker,
		providers.NewFileResolverChain,
		providers.NewAPIClientRegistry,

		app.CredentialStoreFactory,
		app.MakeTokenStore,
		app.MakeRejectionStore,
		credential.NewOAuthAPITokenSource,
		wire.Bind(new(credential.TokenSource), new(*credential.OAuthAPITokenSource)),
		credential.NewPersonalAccessTokenManager,
		wire.Bind(new(services.PersonalAccessTokenManager), new(*credential.PersonalAccessTokenManager)),
		credential.NewAuthorisationRequestManager,
		wire.Bind(new(services.AuthorisationRequestManager), new(*credential.AuthorisationRequestManager)),
		credential.NewForwarder,
		wire.Bind(new(services.AuthorisationForwarder), new(*credential.Forwarder)),
		app.MakeIdentityVerifier,
		wire.Bind(new(middleware.IdentityVerifier), new(*credential.IdentityVerifier)),

		app.MakeFactoryService,
		wire.Bind(new(services.FactoryService), new(*factory.FactoryService)),
		scm_file.NewSCMFileService,
		wire.Bind(new(services.SCMFileService), new(*scm_file.SCMFileService)),

		rest_server.NewFactoryAPI,
		rest_server.NewSCMAPI,
		rest_server.NewHealthAPI,
		rest_server.NewAppAPIRouter,
		rest_server.NewAppAPIServer,
		servertest.HTTPTestServerFactory,

		MakeClock,
		wire.Bind(new(clock.Clock), new(*clock.Mock)),
		MakeLogFactory,
	))
}
