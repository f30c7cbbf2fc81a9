package app

import (
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/api/rest/server"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/credential"
	"github.com/devboard/devboard/server/services/factory"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
)

type Server struct {
	FactoryService services.FactoryService
	SCMFileService services.SCMFileService
	AppAPIServer   *server.AppAPIServer
}

func NewServer(
	factoryService services.FactoryService,
	scmFileService services.SCMFileService,
	appAPIServer *server.AppAPIServer,
) *Server {
	return &Server{
		FactoryService: factoryService,
		SCMFileService: scmFileService,
		AppAPIServer:   appAPIServer,
	}
}

// MakeFactoryService creates the factory service with the direct-link and repository-link
// resolvers registered.
func MakeFactoryService(
	config factory.ServiceConfig,
	tokens services.PersonalAccessTokenManager,
	rejections services.AuthorisationRequestManager,
	chain *scm.FileResolverChain,
	fetcher *scm.Fetcher,
	oauth *scm.OAuthLinker,
	forwarder services.AuthorisationForwarder,
	logFactory logger.LogFactory,
) *factory.FactoryService {
	return factory.NewFactoryService(
		config,
		tokens,
		rejections,
		logFactory,
		factory.NewDirectLinkResolver(config.Providers.CandidateFilenames, fetcher, oauth, forwarder, logFactory),
		factory.NewRepositoryLinkResolver(config.Providers, chain, forwarder, config.PublicURL, logFactory),
	)
}

func ProvidersConfig(config factory.ServiceConfig) providers.Config {
	return config.Providers
}

func MakeIdentityVerifier(key IdentityJWTKey) *credential.IdentityVerifier {
	return credential.NewIdentityVerifier(key)
}

func MakeTokenStore(store credential.Store) credential.TokenStore {
	return store
}

func MakeRejectionStore(store credential.Store) credential.RejectionStore {
	return store
}

// MakeLogFactory logs to stderr for commands that print results to stdout, otherwise to the
// configured log file or stdout.
func MakeLogFactory(config *ServerConfig, logRegistry *logger.LogRegistry) (logger.LogFactory, error) {
	if config.LogToStdErr {
		return logger.MakeLogrusLogFactoryStdErrPlain(logRegistry), nil
	}
	if config.LogFile != "" {
		return logger.MakeLogrusLogFactoryToFile(logRegistry, config.LogFile)
	}
	return logger.MakeLogrusLogFactoryStdOut(logRegistry), nil
}
