package api_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/server/api/rest/documents"
)

func TestResolveSCMFile(t *testing.T) {
	app, serverURL := startTestServer(t)
	app.FakeSCM.Serve("https://raw.githubusercontent.com/acme/widgets/HEAD/.che/che-editor.yaml", http.StatusOK, "id: che-incubator/che-code/latest\n")

	res := do(t, http.MethodGet, serverURL+"/api/scm/resolve?repository=https%3A%2F%2Fgithub.com%2Facme%2Fwidgets&file=.che%2Fche-editor.yaml", "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "text/plain; charset=utf-8", res.Header.Get("Content-Type"))
	require.Equal(t, `attachment; filename="che-editor.yaml"`, res.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "id: che-incubator/che-code/latest\n", string(body))
}

func TestResolveSCMFileErrors(t *testing.T) {
	_, serverURL := startTestServer(t)

	res := do(t, http.MethodGet, serverURL+"/api/scm/resolve?file=devfile.yaml", "", "")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	var doc documents.ErrorDocument
	decode(t, res, &doc)
	require.Equal(t, "InvalidQueryParameter", string(doc.Error))

	res = do(t, http.MethodGet, serverURL+"/api/scm/resolve?repository=https%3A%2F%2Fgitlab.com%2Fgroup%2Fproject&file=devfile.yaml", "", "")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var authDoc documents.AuthenticationRequiredDocument
	decode(t, res, &authDoc)
	require.Equal(t, "gitlab", authDoc.Attributes["oauth_provider"])
}

func TestHealth(t *testing.T) {
	_, serverURL := startTestServer(t)

	res := do(t, http.MethodGet, serverURL+"/healthz", "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var doc documents.HealthDocument
	decode(t, res, &doc)
	require.Equal(t, "ok", doc.Status)
}
