package factory

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
	"github.com/devboard/devboard/server/services/scm/scmtest"
)

const publicURL = "https://devboard.example.com"

type inboundForwarder struct{}

func (inboundForwarder) Header(ctx context.Context, identity models.Identity, repositoryURL string, inbound string) string {
	return inbound
}

type testEnv struct {
	fake    *scmtest.FakeSCM
	service *FactoryService
	tokens  *fakeTokens
	rejects *fakeRejections
}

func newTestEnv(t *testing.T, mode RefreshMode) *testEnv {
	fake := scmtest.NewFakeSCM(t)
	fetcher := fake.Fetcher()
	oauth := scm.NewOAuthLinker(scm.OAuthConfig{AuthenticateEndpoint: publicURL + "/api/oauth/authenticate"})
	config := ServiceConfig{PublicURL: publicURL, RefreshMode: mode}
	chain := providers.NewFileResolverChain(config.Providers, fetcher, oauth, logger.NoOpLogFactory)
	tokens := &fakeTokens{}
	rejects := &fakeRejections{rejected: map[string]bool{}}
	service := NewFactoryService(config, tokens, rejects, logger.NoOpLogFactory,
		NewRepositoryLinkResolver(config.Providers, chain, inboundForwarder{}, publicURL, logger.NoOpLogFactory),
		NewDirectLinkResolver(nil, fetcher, oauth, inboundForwarder{}, logger.NoOpLogFactory),
	)
	return &testEnv{fake: fake, service: service, tokens: tokens, rejects: rejects}
}

func resolve(env *testEnv, url string, authorization string) (*models.Factory, error) {
	return env.service.ResolveFactory(context.Background(), models.Identity{UserID: "u1"}, authorization, models.FactoryParameters{"url": url})
}

func TestDirectLinkToUnknownHost(t *testing.T) {
	env := newTestEnv(t, RefreshModeLazy)
	env.fake.Serve("https://example.com/devfile.yaml", http.StatusOK, "schemaVersion: 2.2.0\nmetadata:\n  name: sample\n")

	factory, err := resolve(env, "https://example.com/devfile.yaml", "")
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/devfile.yaml"}, env.fake.RequestedURLs())
	require.Equal(t, models.FactoryVersion, factory.Version)
	require.Equal(t, "sample", factory.Name)
	require.Equal(t, "devfile.yaml", factory.Source)
	require.Equal(t, "2.2.0", factory.Devfile["schemaVersion"])
	require.Equal(t, models.GenericGitSystem, factory.ScmInfo.ProviderName)
	require.Equal(t, "https://example.com", factory.ScmInfo.CloneURL)
	require.Len(t, factory.Links, 1)
	require.Equal(t, models.SelfLinkRel, factory.Links[0].Rel)
	require.Equal(t, publicURL+ResolverPath, factory.Links[0].Href)
}

func TestDirectLinkRequiresVersionField(t *testing.T) {
	env := newTestEnv(t, RefreshModeLazy)
	env.fake.Serve("https://example.com/devfile.yaml?token=x", http.StatusOK, "metadata:\n  name: sample\n")

	_, err := resolve(env, "https://example.com/devfile.yaml?token=x", "")
	require.True(t, gerror.IsValidationFailed(err))
}

func TestDirectLinkCredentialSchemes(t *testing.T) {
	tests := map[string]struct {
		url           string
		authorization string
		wantAuth      bool
	}{
		"GitHubBasic":      {"https://raw.githubusercontent.com/o/r/main/devfile.yaml", "Basic dXNlcjpwYXNz", true},
		"GitHubToken":      {"https://raw.githubusercontent.com/o/r/main/devfile.yaml", "token ghp_x", false},
		"GitLabBasic":      {"https://gitlab.com/g/p/-/raw/main/devfile.yaml", "Basic dXNlcjpwYXNz", true},
		"GitLabBearer":     {"https://gitlab.com/g/p/-/raw/main/devfile.yaml", "Bearer glpat", false},
		"BitbucketBasic":   {"https://bitbucket.org/ws/repo/raw/main/devfile.yaml", "Basic dXNlcjpwYXNz", false},
		"UnknownHostBasic": {"https://example.com/devfile.yaml", "Basic dXNlcjpwYXNz", false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, RefreshModeLazy)
			_, err := resolve(env, test.url, test.authorization)
			require.Error(t, err)
			require.Equal(t, test.wantAuth, gerror.ToAuthenticationRequired(err) != nil, err.Error())
			if !test.wantAuth {
				require.True(t, gerror.IsNotFound(err))
			}
			require.Len(t, env.fake.Requests(), 1)
		})
	}
}

func TestDirectLinkWinsOverRepositoryLink(t *testing.T) {
	env := newTestEnv(t, RefreshModeLazy)
	url := "https://github.com/user/repo/blob/main/devfile.yaml"
	direct := NewDirectLinkResolver(nil, env.fake.Fetcher(), nil, inboundForwarder{}, logger.NoOpLogFactory)
	repository := NewRepositoryLinkResolver(providers.Config{}, nil, inboundForwarder{}, publicURL, logger.NoOpLogFactory)

	ok, err := direct.Accept(models.FactoryParameters{"url": url})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repository.Accept(models.FactoryParameters{"url": url})
	require.NoError(t, err)
	require.False(t, ok)

	env.fake.Serve(url, http.StatusOK, `{"schemaVersion": "2.1.0"}`)
	factory, err := resolve(env, url, "")
	require.NoError(t, err)
	require.Equal(t, "repo", factory.Name)
	require.Equal(t, "main", factory.ScmInfo.Branch)
	require.Equal(t, "https://github.com/user/repo", factory.ScmInfo.CloneURL)
	require.Equal(t, models.GitHubSystem, factory.ScmInfo.ProviderName)
}

func TestRepositoryLink(t *testing.T) {
	env := newTestEnv(t, RefreshModeLazy)
	env.fake.Serve("https://raw.githubusercontent.com/eclipse-che/che-dashboard/HEAD/.devfile.yaml", http.StatusOK, "schemaVersion: 2.2.0\n")

	factory, err := resolve(env, "https://github.com/eclipse-che/che-dashboard.git", "Bearer abc")
	require.NoError(t, err)
	require.Equal(t, ".devfile.yaml", factory.Source)
	require.Equal(t, "che-dashboard", factory.Name)
	require.Equal(t, "https://github.com/eclipse-che/che-dashboard", factory.ScmInfo.CloneURL)
	require.Empty(t, factory.ScmInfo.Branch)
	require.Len(t, factory.Links, 1+len(SideFiles))
	require.Equal(t, models.SelfLinkRel, factory.Links[0].Rel)
	require.Equal(t,
		publicURL+"/api/scm/resolve?repository=https%3A%2F%2Fgithub.com%2Feclipse-che%2Fche-dashboard.git&file=.che%2Fche-editor.yaml",
		factory.Links[2].Href)
	require.Equal(t, "che-editor.yaml content", factory.Links[2].Rel)
}

func TestRepositoryLinkWithoutConfigurationFile(t *testing.T) {
	env := newTestEnv(t, RefreshModeLazy)

	factory, err := resolve(env, "https://gitlab.com/group/project/-/tree/dev", "Bearer abc")
	require.NoError(t, err)
	require.Equal(t, models.FactorySourceRepository, factory.Source)
	require.Empty(t, factory.Devfile)
	require.NotNil(t, factory.Devfile)
	require.Equal(t, "project", factory.Name)
	require.Equal(t, "dev", factory.ScmInfo.Branch)
	require.Equal(t, models.GitLabSystem, factory.ScmInfo.ProviderName)
}

func TestRepositoryLinkPropagatesAuthenticationRequired(t *testing.T) {
	env := newTestEnv(t, RefreshModeLazy)

	_, err := resolve(env, "https://bitbucket.org/ws/repo", "")
	require.True(t, gerror.IsAuthenticationRequired(err))
	require.Equal(t, "bitbucket", gerror.ToAuthenticationRequired(err).Detail(gerror.DetailOAuthProvider))
	require.Len(t, env.fake.Requests(), 1)
}

func TestNoMatchingResolver(t *testing.T) {
	env := newTestEnv(t, RefreshModeLazy)

	_, err := resolve(env, "https://example.com/some/repo", "")
	require.True(t, gerror.IsNoMatchingResolver(err))
	require.Contains(t, err.Error(), "devfile.yaml")

	_, err = env.service.ResolveFactory(context.Background(), models.AnonymousIdentity, "", models.FactoryParameters{"other": "x"})
	require.True(t, gerror.IsNoMatchingResolver(err))

	_, err = env.service.ResolveFactory(context.Background(), models.AnonymousIdentity, "", models.FactoryParameters{})
	require.True(t, gerror.IsValidationFailed(err))
}

type stubResolver struct {
	name      string
	priority  models.ResolverPriority
	acceptErr error
	accept    bool
	factory   *models.Factory
}

func (r *stubResolver) Name() string                      { return r.name }
func (r *stubResolver) Priority() models.ResolverPriority { return r.priority }
func (r *stubResolver) Accept(models.FactoryParameters) (bool, error) {
	return r.accept, r.acceptErr
}
func (r *stubResolver) CreateFactory(context.Context, *Request) (*models.Factory, error) {
	return r.factory, nil
}

func TestResolverOrdering(t *testing.T) {
	low := &stubResolver{name: "low", priority: models.ResolverPriorityLowest, accept: true,
		factory: &models.Factory{Version: "4.0", Name: "low"}}
	broken := &stubResolver{name: "broken", priority: models.ResolverPriorityHighest, accept: true, acceptErr: errors.New("boom")}
	existingSelf := &models.Link{Href: "https://elsewhere", Rel: models.SelfLinkRel}
	mid := &stubResolver{name: "mid", priority: models.ResolverPriorityDefault, accept: true,
		factory: &models.Factory{Version: "4.0", Name: "mid", Links: []*models.Link{existingSelf}}}

	service := NewFactoryService(ServiceConfig{PublicURL: publicURL}, nil, nil, logger.NoOpLogFactory, low, broken)
	factory, err := service.ResolveFactory(context.Background(), models.AnonymousIdentity, "", models.FactoryParameters{"url": "x"})
	require.NoError(t, err)
	require.Equal(t, "low", factory.Name)

	service.RegisterResolver(mid)
	factory, err = service.ResolveFactory(context.Background(), models.AnonymousIdentity, "", models.FactoryParameters{"url": "x"})
	require.NoError(t, err)
	require.Equal(t, "mid", factory.Name)
	require.Equal(t, []*models.Link{existingSelf}, factory.Links)
}

func TestValidateParameter(t *testing.T) {
	invalid := &stubResolver{name: "invalid", priority: models.ResolverPriorityDefault, accept: true,
		factory: &models.Factory{Version: "4.0", Devfile: map[string]interface{}{"metadata": "x"}}}
	service := NewFactoryService(ServiceConfig{}, nil, nil, logger.NoOpLogFactory, invalid)

	_, err := service.ResolveFactory(context.Background(), models.AnonymousIdentity, "", models.FactoryParameters{"url": "x"})
	require.NoError(t, err)
	_, err = service.ResolveFactory(context.Background(), models.AnonymousIdentity, "", models.FactoryParameters{"url": "x", "validate": "true"})
	require.True(t, gerror.IsValidationFailed(err))
}

type fakeTokens struct {
	forced []string
	lazy   []string
}

func (f *fakeTokens) Get(ctx context.Context, identity models.Identity, serverOrigin string) (*models.PersonalAccessToken, error) {
	return nil, gerror.NewErrNotFound("Not Found")
}

func (f *fakeTokens) Store(ctx context.Context, token *models.PersonalAccessToken) error {
	return nil
}

func (f *fakeTokens) ForceRefresh(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (*models.PersonalAccessToken, error) {
	f.forced = append(f.forced, serverOrigin)
	return &models.PersonalAccessToken{}, nil
}

func (f *fakeTokens) GetAndStore(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (*models.PersonalAccessToken, error) {
	f.lazy = append(f.lazy, serverOrigin)
	return &models.PersonalAccessToken{}, nil
}

type fakeRejections struct {
	rejected map[string]bool
}

func (f *fakeRejections) IsStored(ctx context.Context, identity models.Identity, serverOrigin string) (bool, error) {
	return f.rejected[identity.UserID+"|"+serverOrigin], nil
}

func (f *fakeRejections) Store(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) error {
	f.rejected[identity.UserID+"|"+serverOrigin] = true
	return nil
}

func (f *fakeRejections) Remove(ctx context.Context, identity models.Identity, serverOrigin string) error {
	delete(f.rejected, identity.UserID+"|"+serverOrigin)
	return nil
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	identity := models.Identity{UserID: "u1"}

	t.Run("Lazy", func(t *testing.T) {
		env := newTestEnv(t, RefreshModeLazy)
		require.NoError(t, env.service.RefreshToken(ctx, identity, "https://github.com/a/b"))
		require.Equal(t, []string{"https://github.com"}, env.tokens.lazy)
		require.Empty(t, env.tokens.forced)
	})

	t.Run("Force", func(t *testing.T) {
		env := newTestEnv(t, RefreshModeForce)
		require.NoError(t, env.service.RefreshToken(ctx, identity, "https://gitlab.com/a/b"))
		require.Equal(t, []string{"https://gitlab.com"}, env.tokens.forced)
	})

	t.Run("SkipsRejected", func(t *testing.T) {
		env := newTestEnv(t, RefreshModeForce)
		require.NoError(t, env.rejects.Store(ctx, identity, models.GitHubSystem, "https://github.com"))
		require.NoError(t, env.service.RefreshToken(ctx, identity, "https://github.com/a/b"))
		require.Empty(t, env.tokens.forced)

		other := models.Identity{UserID: "u2"}
		require.NoError(t, env.service.RefreshToken(ctx, other, "https://github.com/a/b"))
		require.Equal(t, []string{"https://github.com"}, env.tokens.forced)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		env := newTestEnv(t, RefreshModeLazy)
		err := env.service.RefreshToken(ctx, identity, "https://example.com/a/b")
		require.True(t, gerror.IsValidationFailed(err))
	})
}

func TestRejectAuthorisationSkipsRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RefreshModeForce)
	identity := models.Identity{UserID: "u1"}

	require.NoError(t, env.service.RejectAuthorisation(ctx, identity, "https://gitlab.com/group/project"))
	require.NoError(t, env.service.RefreshToken(ctx, identity, "https://gitlab.com/other/project"))
	require.Empty(t, env.tokens.forced)

	require.NoError(t, env.service.RefreshToken(ctx, models.Identity{UserID: "u2"}, "https://gitlab.com/group/project"))
	require.Equal(t, []string{"https://gitlab.com"}, env.tokens.forced)

	require.NoError(t, env.service.ClearRejection(ctx, identity, "https://gitlab.com/group/project"))
	require.NoError(t, env.service.RefreshToken(ctx, identity, "https://gitlab.com/group/project"))
	require.Equal(t, []string{"https://gitlab.com", "https://gitlab.com"}, env.tokens.forced)

	err := env.service.RejectAuthorisation(ctx, identity, "")
	require.True(t, gerror.IsValidationFailed(err))
	err = env.service.RejectAuthorisation(ctx, identity, "https://example.com/repo")
	require.True(t, gerror.IsValidationFailed(err))
}
