package scm_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/server/services/scm"
)

func TestStripGitSuffix(t *testing.T) {
	for in, want := range map[string]string{
		"https://github.com/a/b.git":     "https://github.com/a/b",
		"https://github.com/a/b.git/":    "https://github.com/a/b",
		"https://github.com/a/b/":        "https://github.com/a/b",
		"https://github.com/a/b.git.git": "https://github.com/a/b",
		"https://github.com/a/b":         "https://github.com/a/b",
		"https://github.com/a/legit":     "https://github.com/a/legit",
	} {
		once := scm.StripGitSuffix(in)
		assert.Equal(t, want, once, in)
		assert.Equal(t, once, scm.StripGitSuffix(once), "stripping must be idempotent for %s", in)
	}
}

func TestNormalizeRepositoryURL(t *testing.T) {
	for in, want := range map[string]string{
		"https://github.com/a/b":                          "https://github.com/a/b",
		"git@github.com:a/b.git":                          "https://github.com/a/b.git",
		"ssh://git@gitlab.com/group/sub/project.git":      "https://gitlab.com/group/sub/project.git",
		"git@ssh.dev.azure.com:v3/org/project/repository": "https://dev.azure.com/org/project/_git/repository",
	} {
		got, err := scm.NormalizeRepositoryURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := scm.NormalizeRepositoryURL("/local/path")
	require.Error(t, err)
	require.True(t, gerror.IsValidationFailed(err))
}

func TestPathSegments(t *testing.T) {
	u, err := url.Parse("https://github.com//a/b.git/")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, scm.PathSegments(u))
}

func TestHostMatches(t *testing.T) {
	u, err := url.Parse("https://GitHub.example.com:8443/a/b")
	require.NoError(t, err)
	require.True(t, scm.HostMatches(u, []string{"https://github.example.com"}))
	require.True(t, scm.HostMatches(u, []string{"github.example.com"}))
	require.False(t, scm.HostMatches(u, []string{"https://github.com"}))
}

func TestJoinPathAndBaseName(t *testing.T) {
	require.Equal(t, "https://example.com/repo/devfile.yaml", scm.JoinPath("https://example.com/repo/", "/devfile.yaml"))
	require.Equal(t, "extensions.json", scm.BaseName(".vscode/extensions.json"))
	require.Equal(t, "devfile.yaml", scm.BaseName("devfile.yaml"))
}

func TestEncodeURIComponent(t *testing.T) {
	require.Equal(t, "group%2Fsub%20group%2Fproject", scm.EncodeURIComponent("group/sub group/project"))
	require.Equal(t, ".che%2Fche-editor.yaml", scm.EncodeURIComponent(".che/che-editor.yaml"))
	require.Equal(t, "a(b)!~*'", scm.EncodeURIComponent("a(b)!~*'"))
}

func TestEscapePath(t *testing.T) {
	require.Equal(t, ".vscode/extensions.json", scm.EscapePath(".vscode/extensions.json"))
	require.Equal(t, "dir%20one/file%3F.yaml", scm.EscapePath("/dir one/file?.yaml"))
}
