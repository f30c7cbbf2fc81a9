package credential

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
	"github.com/devboard/devboard/server/services/scm/scmtest"
)

var alice = models.Identity{UserID: "alice", UserName: "alice", Token: "alice-jwt"}

type fixedSource struct {
	token string
	err   error
	calls int
}

func (s *fixedSource) Token(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (string, error) {
	s.calls++
	return s.token, s.err
}

// stubClient accepts exactly one token.
type stubClient struct {
	name  models.SystemName
	valid string
}

func (c *stubClient) Name() models.SystemName {
	return c.name
}

func (c *stubClient) CurrentUser(ctx context.Context, serverOrigin string, token string) (*scm.User, error) {
	if token != c.valid {
		return nil, gerror.NewErrAuthenticationRequired(c.name.String(), scm.OAuthVersion, "")
	}
	return &scm.User{ID: "1", Login: "alice-gh"}, nil
}

func newTestManager(source TokenSource, clk clock.Clock) (*PersonalAccessTokenManager, *MemoryStore) {
	memory := NewMemoryStore()
	clients := scm.NewAPIClientRegistry(&stubClient{name: models.GitHubSystem, valid: "gho_valid"})
	return NewPersonalAccessTokenManager(memory, source, clients, clk, logger.NoOpLogFactory), memory
}

func TestTokenManagerForceRefresh(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	source := &fixedSource{token: "gho_valid"}
	manager, _ := newTestManager(source, clk)

	_, err := manager.Get(ctx, alice, "https://github.com")
	require.True(t, gerror.IsNotFound(err))

	pat, err := manager.ForceRefresh(ctx, alice, models.GitHubSystem, "https://github.com")
	require.NoError(t, err)
	require.NotEmpty(t, pat.ID)
	require.Equal(t, "alice-gh", pat.ScmUserName)
	require.Equal(t, clk.Now().UTC(), pat.CreatedAt.Time)

	got, err := manager.Get(ctx, alice, "https://github.com")
	require.NoError(t, err)
	require.Equal(t, "gho_valid", got.Token)
	require.Equal(t, "Bearer gho_valid", got.AuthorisationHeader())

	clk.Add(time.Hour)
	_, err = manager.ForceRefresh(ctx, alice, models.GitHubSystem, "https://github.com")
	require.NoError(t, err)
	require.Equal(t, 2, source.calls, "force refresh always asks the token source")
	got, err = manager.Get(ctx, alice, "https://github.com")
	require.NoError(t, err)
	require.Equal(t, clk.Now().UTC(), got.UpdatedAt.Time)

	require.NoError(t, manager.Remove(ctx, alice, "https://github.com"))
	_, err = manager.Get(ctx, alice, "https://github.com")
	require.True(t, gerror.IsNotFound(err))
}

func TestTokenManagerRejectedToken(t *testing.T) {
	ctx := context.Background()
	manager, memory := newTestManager(&fixedSource{token: "gho_revoked"}, clock.NewMock())

	_, err := manager.ForceRefresh(ctx, alice, models.GitHubSystem, "https://github.com")
	require.True(t, gerror.IsAuthenticationRequired(err))
	_, err = memory.GetToken(ctx, "alice", "https://github.com")
	require.True(t, gerror.IsNotFound(err), "a token the provider rejects must not be stored")
}

func TestTokenManagerSourceError(t *testing.T) {
	ctx := context.Background()
	oauth := scm.NewOAuthLinker(scm.OAuthConfig{AuthenticateEndpoint: "https://che.example.com/api/oauth/authenticate"})
	manager, _ := newTestManager(&fixedSource{err: oauth.AuthenticationRequired(models.GitHubSystem, "https://github.com")}, clock.NewMock())

	_, err := manager.GetAndStore(ctx, alice, models.GitHubSystem, "https://github.com")
	require.True(t, gerror.IsAuthenticationRequired(err))
}

func TestTokenManagerGetAndStore(t *testing.T) {
	ctx := context.Background()
	source := &fixedSource{token: "gho_valid"}
	manager, _ := newTestManager(source, clock.NewMock())

	first, err := manager.GetAndStore(ctx, alice, models.GitHubSystem, "https://github.com")
	require.NoError(t, err)
	second, err := manager.GetAndStore(ctx, alice, models.GitHubSystem, "https://github.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, source.calls, "a held token is reused")
}

func TestTokenManagerRefusesUnknownProviderAndAnonymous(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(&fixedSource{token: "gho_valid"}, clock.NewMock())

	_, err := manager.ForceRefresh(ctx, alice, models.GenericGitSystem, "https://git.example.com")
	require.True(t, gerror.IsValidationFailed(err))

	_, err = manager.ForceRefresh(ctx, models.AnonymousIdentity, models.GitHubSystem, "https://github.com")
	require.True(t, gerror.IsUnauthorized(err))
	_, err = manager.Get(ctx, models.AnonymousIdentity, "https://github.com")
	require.True(t, gerror.IsNotFound(err))
}

func TestTokenManagerStoreValidates(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(&fixedSource{}, clock.NewMock())

	err := manager.Store(ctx, &models.PersonalAccessToken{UserID: "alice"})
	require.True(t, gerror.IsValidationFailed(err))

	pat := &models.PersonalAccessToken{UserID: "alice", ScmServerOrigin: "https://gitlab.com", ProviderName: models.GitLabSystem, Token: "glpat"}
	require.NoError(t, manager.Store(ctx, pat))
	require.NotEmpty(t, pat.ID)
	got, err := manager.Get(ctx, alice, "https://gitlab.com")
	require.NoError(t, err)
	require.Equal(t, "glpat", got.Token)
}

func TestAuthorisationRequestManager(t *testing.T) {
	ctx := context.Background()
	manager := NewAuthorisationRequestManager(NewMemoryStore(), clock.NewMock(), logger.NoOpLogFactory)

	stored, err := manager.IsStored(ctx, alice, "https://bitbucket.org")
	require.NoError(t, err)
	require.False(t, stored)

	require.NoError(t, manager.Store(ctx, alice, models.BitbucketSystem, "https://bitbucket.org"))
	stored, err = manager.IsStored(ctx, alice, "https://bitbucket.org")
	require.NoError(t, err)
	require.True(t, stored)

	require.NoError(t, manager.Remove(ctx, alice, "https://bitbucket.org"))
	require.NoError(t, manager.Remove(ctx, alice, "https://bitbucket.org"))
	stored, err = manager.IsStored(ctx, alice, "https://bitbucket.org")
	require.NoError(t, err)
	require.False(t, stored)

	err = manager.Store(ctx, models.AnonymousIdentity, models.BitbucketSystem, "https://bitbucket.org")
	require.True(t, gerror.IsUnauthorized(err))
	stored, err = manager.IsStored(ctx, models.AnonymousIdentity, "https://bitbucket.org")
	require.NoError(t, err)
	require.False(t, stored)
}

func TestForwarder(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(&fixedSource{token: "gho_valid"}, clock.NewMock())
	_, err := manager.ForceRefresh(ctx, alice, models.GitHubSystem, "https://github.com")
	require.NoError(t, err)
	forwarder := NewForwarder(providers.Config{}, manager, logger.NoOpLogFactory)

	require.Equal(t, "Bearer gho_valid", forwarder.Header(ctx, alice, "https://github.com/eclipse/che", "Bearer inbound"))
	require.Equal(t, "Bearer gho_valid", forwarder.Header(ctx, alice, "git@github.com:eclipse/che.git", ""))
	require.Equal(t, "Bearer inbound", forwarder.Header(ctx, alice, "https://gitlab.com/eclipse/che", "Bearer inbound"))
	require.Equal(t, "Bearer inbound", forwarder.Header(ctx, models.AnonymousIdentity, "https://github.com/eclipse/che", "Bearer inbound"))
	require.Equal(t, "", forwarder.Header(ctx, alice, "not a url", ""))
	require.Equal(t, "Basic abc", InboundOnly{}.Header(ctx, alice, "https://github.com/eclipse/che", "Basic abc"))
}

func TestForwarderUsesNormalisedServerOrigin(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(&fixedSource{}, clock.NewMock())
	forwarder := NewForwarder(providers.Config{}, manager, logger.NoOpLogFactory)

	tests := map[string]struct {
		repositoryURL string
		provider      models.SystemName
		storedUnder   string
	}{
		"GitHubWWW": {
			repositoryURL: "https://www.github.com/o/r",
			provider:      models.GitHubSystem,
			storedUnder:   "https://github.com",
		},
		"AzureDevOpsVisualStudio": {
			repositoryURL: "https://org.visualstudio.com/proj/_git/repo",
			provider:      models.AzureDevOpsSystem,
			storedUnder:   "https://dev.azure.com",
		},
		"GenericHost": {
			repositoryURL: "https://git.example.com/team/repo",
			provider:      models.GenericGitSystem,
			storedUnder:   "https://git.example.com",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, ok := providers.ParseRepositoryURL(test.repositoryURL, providers.Config{})
			if ok {
				require.Equal(t, test.storedUnder, repo.ServerOrigin())
			}
			pat := &models.PersonalAccessToken{
				UserID:          alice.UserID,
				ScmServerOrigin: test.storedUnder,
				ProviderName:    test.provider,
				Token:           "tok-" + name,
			}
			require.NoError(t, manager.Store(ctx, pat))
			require.Equal(t, "Bearer tok-"+name, forwarder.Header(ctx, alice, test.repositoryURL, ""))
		})
	}
}

func TestOAuthAPITokenSource(t *testing.T) {
	ctx := context.Background()
	fake := scmtest.NewFakeSCM(t)
	oauth := scm.NewOAuthLinker(scm.OAuthConfig{AuthenticateEndpoint: "https://che.example.com/api/oauth/authenticate"})
	source := NewOAuthAPITokenSource(
		OAuthTokenSourceConfig{Endpoint: "https://che.example.com/api/oauth/"},
		fake.Fetcher(), oauth, logger.NoOpLogFactory)

	fake.ServeFunc("https://che.example.com/api/oauth/token?oauth_provider=github", func(authorization string) (int, string) {
		if authorization != "Bearer alice-jwt" {
			return http.StatusUnauthorized, ""
		}
		return http.StatusOK, `{"token":"gho_from_oauth","scope":"repo"}`
	})
	fake.Serve("https://che.example.com/api/oauth/token?oauth_provider=gitlab", http.StatusNotFound, "")
	fake.Serve("https://che.example.com/api/oauth/token?oauth_provider=bitbucket", http.StatusBadGateway, "upstream down")

	token, err := source.Token(ctx, alice, models.GitHubSystem, "https://github.com")
	require.NoError(t, err)
	require.Equal(t, "gho_from_oauth", token)

	_, err = source.Token(ctx, models.Identity{UserID: "bob"}, models.GitHubSystem, "https://github.com")
	require.True(t, gerror.IsAuthenticationRequired(err))

	_, err = source.Token(ctx, alice, models.GitLabSystem, "https://gitlab.com")
	require.True(t, gerror.IsAuthenticationRequired(err))
	authErr := gerror.ToAuthenticationRequired(err)
	require.NotNil(t, authErr)
	require.Equal(t, "gitlab", authErr.Detail(gerror.DetailOAuthProvider))

	_, err = source.Token(ctx, alice, models.BitbucketSystem, "https://bitbucket.org")
	require.True(t, gerror.IsCommunicationFailed(err))

	unconfigured := NewOAuthAPITokenSource(OAuthTokenSourceConfig{}, fake.Fetcher(), oauth, logger.NoOpLogFactory)
	_, err = unconfigured.Token(ctx, alice, models.GitHubSystem, "https://github.com")
	require.True(t, gerror.IsAuthenticationRequired(err))
}

func TestIdentityVerifier(t *testing.T) {
	key := []byte("signing-key")
	tokenStr, claims, err := CreateIdentityJWT(models.Identity{UserID: "u-123", UserName: "alice"}, DefaultJWTIssuer, DefaultJWTExpiryDuration, key)
	require.NoError(t, err)
	require.Equal(t, "u-123", claims.Subject)

	identity, err := NewIdentityVerifier(key).Identity(tokenStr)
	require.NoError(t, err)
	require.Equal(t, "u-123", identity.UserID)
	require.Equal(t, "alice", identity.UserName)
	require.Equal(t, tokenStr, identity.Token)

	identity, err = NewIdentityVerifier(nil).Identity(tokenStr)
	require.NoError(t, err, "without a key the signature is not checked")
	require.Equal(t, "u-123", identity.UserID)

	_, err = NewIdentityVerifier([]byte("other-key")).Identity(tokenStr)
	require.True(t, gerror.IsUnauthorized(err))

	expired, _, err := CreateIdentityJWT(models.Identity{UserID: "u-123"}, DefaultJWTIssuer, -time.Hour, key)
	require.NoError(t, err)
	_, err = NewIdentityVerifier(nil).Identity(expired)
	require.True(t, gerror.IsUnauthorized(err))

	_, err = NewIdentityVerifier(nil).Identity("not-a-jwt")
	require.True(t, gerror.IsUnauthorized(err))
}
