package github

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/scmtest"
)

const (
	repoURL       = "https://github.com/eclipse-che/che-dashboard"
	devfileURL    = "https://raw.githubusercontent.com/eclipse-che/che-dashboard/HEAD/devfile.yaml"
	dotDevfileURL = "https://raw.githubusercontent.com/eclipse-che/che-dashboard/HEAD/.devfile.yaml"
)

func newTestResolver(fake *scmtest.FakeSCM) *FileResolver {
	oauth := scm.NewOAuthLinker(scm.OAuthConfig{AuthenticateEndpoint: "https://che.example.com/api/oauth/authenticate"})
	return NewFileResolver(Config{}, scm.DefaultCandidateFilenames, fake.Fetcher(), oauth, logger.NoOpLogFactory)
}

func TestFileResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Accept", func(t *testing.T) {
		r := newTestResolver(scmtest.NewFakeSCM(t))
		require.True(t, r.Accept(repoURL))
		require.True(t, r.Accept("git@github.com:eclipse-che/che-dashboard.git"))
		require.False(t, r.Accept("https://gitlab.com/group/project"))
		require.False(t, r.Accept("::"))
	})

	t.Run("DiscoversCandidatesInOrder", func(t *testing.T) {
		fake := scmtest.NewFakeSCM(t)
		fake.Serve(dotDevfileURL, http.StatusOK, "schemaVersion: 2.2.0")
		r := newTestResolver(fake)

		content, err := r.FileContent(ctx, repoURL, "", "Bearer token")
		require.NoError(t, err)
		require.Equal(t, ".devfile.yaml", content.Location.Filename)
		require.Equal(t, "schemaVersion: 2.2.0", string(content.Content))
		require.Equal(t, []string{devfileURL, dotDevfileURL}, fake.RequestedURLs())
	})

	t.Run("MissingWithoutCredentialRequiresAuthentication", func(t *testing.T) {
		fake := scmtest.NewFakeSCM(t)
		r := newTestResolver(fake)

		_, err := r.FileContent(ctx, repoURL, "", "")
		require.True(t, gerror.IsAuthenticationRequired(err))
		require.Equal(t, []string{devfileURL}, fake.RequestedURLs())
	})

	t.Run("MissingWithCredentialIsNotFound", func(t *testing.T) {
		fake := scmtest.NewFakeSCM(t)
		r := newTestResolver(fake)

		_, err := r.FileContent(ctx, repoURL, "", "Bearer token")
		require.True(t, gerror.IsNoMatchingFile(err))
		require.False(t, gerror.IsAuthenticationRequired(err))
		require.Equal(t, []string{devfileURL, dotDevfileURL}, fake.RequestedURLs())
	})

	t.Run("BasicCredentialIsUnsupported", func(t *testing.T) {
		r := newTestResolver(scmtest.NewFakeSCM(t))
		_, err := r.FileContent(ctx, repoURL, "", "Basic dXNlcjpwYXNz")
		require.True(t, gerror.IsAuthenticationRequired(err))
	})

	t.Run("ExplicitFilePath", func(t *testing.T) {
		fake := scmtest.NewFakeSCM(t)
		editorURL := "https://raw.githubusercontent.com/eclipse-che/che-dashboard/main/.che/che-editor.yaml"
		fake.Serve(editorURL, http.StatusOK, "id: che-incubator/che-code/latest")
		r := newTestResolver(fake)

		content, err := r.FileContent(ctx, repoURL+"/tree/main", ".che/che-editor.yaml", "")
		require.NoError(t, err)
		require.Equal(t, "id: che-incubator/che-code/latest", string(content.Content))
		require.Equal(t, []string{editorURL}, fake.RequestedURLs())
	})

	t.Run("ExplicitFilePathNotFound", func(t *testing.T) {
		r := newTestResolver(scmtest.NewFakeSCM(t))
		_, err := r.FileContent(ctx, repoURL, ".vscode/extensions.json", "Bearer token")
		require.True(t, gerror.IsNotFound(err))
	})

	t.Run("UnparseableURLUsesFallback", func(t *testing.T) {
		fake := scmtest.NewFakeSCM(t)
		r := newTestResolver(fake)
		_, err := r.FileContent(ctx, "https://github.com/eclipse-che", "devfile.yaml", "Bearer token")
		require.True(t, gerror.IsNotFound(err))
		require.Equal(t, []string{"https://github.com/eclipse-che/raw/HEAD/devfile.yaml"}, fake.RequestedURLs())
	})
}
