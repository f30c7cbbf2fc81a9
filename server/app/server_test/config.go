package server_test

import (
	"testing"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/api/rest/server"
	"github.com/devboard/devboard/server/app"
	"github.com/devboard/devboard/server/services/credential"
	"github.com/devboard/devboard/server/services/factory"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
)

const (
	// TestPublicURL is the public URL test servers claim to be served from.
	TestPublicURL = "https://devboard.example.com"
	// TestOAuthEndpoint is the OAuth API test servers read tokens from and link callers to.
	TestOAuthEndpoint = "https://devboard.example.com/api/oauth"
	// TestIdentityJWTKey signs identity tokens accepted by test servers.
	TestIdentityJWTKey = "test-identity-key"
)

func TestConfig(t *testing.T) *app.ServerConfig {
	return &app.ServerConfig{
		AppAPIConfig: server.AppAPIServerConfig{
			HTTPServerConfig: server.HTTPServerConfig{
				Address: "", // Test is expected to use httptest server which picks its own address
			},
		},
		IncludeErrorDetail: false,
		FactoryConfig: factory.ServiceConfig{
			PublicURL:   TestPublicURL,
			RefreshMode: factory.RefreshModeForce,
			Providers: providers.Config{
				CandidateFilenames: scm.DefaultCandidateFilenames,
			},
		},
		OAuthConfig: scm.OAuthConfig{
			AuthenticateEndpoint: TestOAuthEndpoint + "/authenticate",
			RedirectAfterLogin:   TestPublicURL + "/dashboard",
			ClientIDs:            map[models.SystemName]string{},
		},
		TokenSourceConfig: credential.OAuthTokenSourceConfig{
			Endpoint: TestOAuthEndpoint,
		},
		CredentialStoreConfig: app.CredentialStoreConfig{
			Kind: credential.MemoryStoreKind,
		},
		IdentityJWTKey: app.IdentityJWTKey(TestIdentityJWTKey),
		LogLevels:      "",
	}
}
