//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/wire"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/api/rest/middleware"
	"github.com/devboard/devboard/server/api/rest/server"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/credential"
	"github.com/devboard/devboard/server/services/factory"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
	"github.com/devboard/devboard/server/services/scm_file"
)

// ServiceSet builds everything behind the HTTP server. It is shared with the test injector.
var ServiceSet = wire.NewSet(
	ProvidersConfig,
	scm.NewFetcher,
	scm.NewOAuthLinker,
	providers.NewFileResolverChain,
	providers.NewAPIClientRegistry,

	// Credentials
	CredentialStoreFactory,
	MakeTokenStore,
	MakeRejectionStore,
	credential.NewOAuthAPITokenSource,
	wire.Bind(new(credential.TokenSource), new(*credential.OAuthAPITokenSource)),
	credential.NewPersonalAccessTokenManager,
	wire.Bind(new(services.PersonalAccessTokenManager), new(*credential.PersonalAccessTokenManager)),
	credential.NewAuthorisationRequestManager,
	wire.Bind(new(services.AuthorisationRequestManager), new(*credential.AuthorisationRequestManager)),
	credential.NewForwarder,
	wire.Bind(new(services.AuthorisationForwarder), new(*credential.Forwarder)),
	MakeIdentityVerifier,
	wire.Bind(new(middleware.IdentityVerifier), new(*credential.IdentityVerifier)),

	// Services
	MakeFactoryService,
	wire.Bind(new(services.FactoryService), new(*factory.FactoryService)),
	scm_file.NewSCMFileService,
	wire.Bind(new(services.SCMFileService), new(*scm_file.SCMFileService)),

	// APIs
	server.NewFactoryAPI,
	server.NewSCMAPI,
	server.NewHealthAPI,
	server.NewAppAPIRouter,
	server.NewAppAPIServer,

	NewServer,
	clock.New,
)

func New(ctx context.Context, config *ServerConfig) (*Server, func(), error) {
	panic(wire.Build(
		ServiceSet,
		wire.FieldsOf(new(*ServerConfig), "AppAPIConfig", "CORSAllowedOrigins", "IncludeErrorDetail", "FactoryConfig", "FetcherConfig", "OAuthConfig", "TokenSourceConfig", "CredentialStoreConfig", "IdentityJWTKey", "LogLevels"),
		server.RealHTTPServerFactory,
		logger.NewLogRegistry,
		MakeLogFactory,
	))
}
