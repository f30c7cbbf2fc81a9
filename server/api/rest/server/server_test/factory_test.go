package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/api/rest/documents"
	"github.com/devboard/devboard/server/app/server_test"
	"github.com/devboard/devboard/server/services/credential"
	"github.com/devboard/devboard/server/services/scm/scmtest"
)

var alice = models.Identity{UserID: "alice-id", UserName: "alice"}

func startTestServer(t *testing.T) (*server_test.TestServer, string) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(ctx, server_test.TestConfig(t), scmtest.NewFakeSCM(t))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	app.AppAPIServer.Start()
	t.Cleanup(func() { app.AppAPIServer.Stop(ctx) })
	return app, app.AppAPIServer.GetServerURL()
}

func identityToken(t *testing.T, identity models.Identity) string {
	token, _, err := credential.CreateIdentityJWT(identity, credential.DefaultJWTIssuer, time.Hour, []byte(server_test.TestIdentityJWTKey))
	require.NoError(t, err)
	return token
}

func do(t *testing.T, method string, target string, body string, authorization string) *http.Response {
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode(t *testing.T, res *http.Response, v interface{}) {
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

func TestResolveFactory(t *testing.T) {
	app, serverURL := startTestServer(t)
	app.FakeSCM.Serve("https://raw.githubusercontent.com/eclipse-che/che-dashboard/HEAD/devfile.yaml",
		http.StatusOK, "schemaVersion: 2.2.0\nmetadata:\n  name: dashboard\n")

	res := do(t, http.MethodPost, serverURL+"/api/factory/resolver", `{"url": "https://github.com/eclipse-che/che-dashboard"}`, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Get("Content-Type"), "application/json")

	var doc documents.FactoryDocument
	decode(t, res, &doc)
	require.Equal(t, "4.0", doc.Version)
	require.Equal(t, "che-dashboard", doc.Name)
	require.Equal(t, "devfile.yaml", doc.Source)
	require.Equal(t, "2.2.0", doc.Devfile["schemaVersion"])
	require.NotNil(t, doc.ScmInfo)
	require.Equal(t, "https://github.com/eclipse-che/che-dashboard", doc.ScmInfo.CloneURL)
	require.Equal(t, "github", doc.ScmInfo.ProviderName)
	require.NotEmpty(t, doc.Links)
	require.True(t, strings.HasPrefix(doc.Links[0].Href, server_test.TestPublicURL+"/api/factory/resolver"))
}

func TestResolveFactoryErrors(t *testing.T) {
	_, serverURL := startTestServer(t)

	t.Run("NoURL", func(t *testing.T) {
		res := do(t, http.MethodPost, serverURL+"/api/factory/resolver", `{}`, "")
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		var doc documents.ErrorDocument
		decode(t, res, &doc)
		require.Equal(t, "ValidationFailed", string(doc.Error))
		require.Empty(t, doc.InternalError)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		res := do(t, http.MethodPost, serverURL+"/api/factory/resolver", `{"url":`, "")
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("NoMatchingResolver", func(t *testing.T) {
		res := do(t, http.MethodPost, serverURL+"/api/factory/resolver", `{"url": "https://example.com/some/repo"}`, "")
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		var doc documents.ErrorDocument
		decode(t, res, &doc)
		require.Equal(t, "NoMatchingResolver", string(doc.Error))
	})

	t.Run("AuthenticationRequired", func(t *testing.T) {
		res := do(t, http.MethodPost, serverURL+"/api/factory/resolver", `{"url": "https://github.com/acme/private"}`, "")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		var doc documents.AuthenticationRequiredDocument
		decode(t, res, &doc)
		require.Equal(t, http.StatusUnauthorized, doc.ErrorCode)
		require.NotEmpty(t, doc.Message)
		require.Equal(t, "github", doc.Attributes["oauth_provider"])
		require.Equal(t, "2.0", doc.Attributes["oauth_version"])
		authURL, ok := doc.Attributes["oauth_authentication_url"].(string)
		require.True(t, ok)
		require.True(t, strings.HasPrefix(authURL, server_test.TestOAuthEndpoint+"/authenticate?oauth_provider=github"))
	})
}

func TestRefreshTokenThenResolvePrivateRepository(t *testing.T) {
	app, serverURL := startTestServer(t)
	jwt := identityToken(t, alice)

	app.FakeSCM.ServeFunc(server_test.TestOAuthEndpoint+"/token?oauth_provider=github", func(authorization string) (int, string) {
		if authorization != "Bearer "+jwt {
			return http.StatusUnauthorized, ""
		}
		return http.StatusOK, `{"token": "gh-pat", "scope": "repo"}`
	})
	app.FakeSCM.ServeFunc("https://api.github.com/user", func(authorization string) (int, string) {
		if authorization != "Bearer gh-pat" {
			return http.StatusUnauthorized, `{"message": "Bad credentials"}`
		}
		return http.StatusOK, `{"id": 42, "login": "alice-gh"}`
	})
	app.FakeSCM.ServeFunc("https://raw.githubusercontent.com/acme/private/HEAD/devfile.yaml", func(authorization string) (int, string) {
		if authorization != "Bearer gh-pat" {
			return http.StatusNotFound, ""
		}
		return http.StatusOK, "schemaVersion: 2.2.0\n"
	})

	repoURL := url.QueryEscape("https://github.com/acme/private")

	// Anonymous callers have nowhere to keep a token
	res := do(t, http.MethodPost, serverURL+"/api/factory/token/refresh?url="+repoURL, "", "")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var errDoc documents.ErrorDocument
	decode(t, res, &errDoc)
	require.Equal(t, "Unauthorized", string(errDoc.Error))

	res = do(t, http.MethodPost, serverURL+"/api/factory/token/refresh?url="+repoURL, "", "Bearer "+jwt)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	pat, err := app.PersonalAccessTokenManager.Get(context.Background(), alice, "https://github.com")
	require.NoError(t, err)
	require.Equal(t, "gh-pat", pat.Token)
	require.Equal(t, "alice-gh", pat.ScmUserName)

	res = do(t, http.MethodPost, serverURL+"/api/factory/resolver", fmt.Sprintf(`{"url": %q}`, "https://github.com/acme/private"), "Bearer "+jwt)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var doc documents.FactoryDocument
	decode(t, res, &doc)
	require.Equal(t, "private", doc.Name)
}

func TestRejectAuthorisation(t *testing.T) {
	app, serverURL := startTestServer(t)
	jwt := identityToken(t, alice)
	repoURL := url.QueryEscape("https://gitlab.com/group/project")

	res := do(t, http.MethodPost, serverURL+"/api/factory/token/reject?url="+repoURL, "", "Bearer "+jwt)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	rejected, err := app.AuthorisationRequestManager.IsStored(context.Background(), alice, "https://gitlab.com")
	require.NoError(t, err)
	require.True(t, rejected)

	// The token source is never asked while the rejection stands
	res = do(t, http.MethodPost, serverURL+"/api/factory/token/refresh?url="+repoURL, "", "Bearer "+jwt)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Empty(t, app.FakeSCM.Requests())

	res = do(t, http.MethodDelete, serverURL+"/api/factory/token/reject?url="+repoURL, "", "Bearer "+jwt)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	rejected, err = app.AuthorisationRequestManager.IsStored(context.Background(), alice, "https://gitlab.com")
	require.NoError(t, err)
	require.False(t, rejected)

	res = do(t, http.MethodPost, serverURL+"/api/factory/token/reject", "", "Bearer "+jwt)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestInvalidIdentityTokenIsAnonymous(t *testing.T) {
	app, serverURL := startTestServer(t)
	app.FakeSCM.Serve("https://raw.githubusercontent.com/eclipse-che/che-dashboard/HEAD/devfile.yaml", http.StatusOK, "schemaVersion: 2.2.0\n")

	res := do(t, http.MethodPost, serverURL+"/api/factory/resolver", `{"url": "https://github.com/eclipse-che/che-dashboard"}`, "Bearer not-a-jwt")
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The caller's own header is passed through when no token is held
	requests := app.FakeSCM.Requests()
	require.NotEmpty(t, requests)
	require.Equal(t, "Bearer not-a-jwt", requests[0].Authorization)

	res = do(t, http.MethodPost, serverURL+"/api/factory/token/refresh?url=https%3A%2F%2Fgithub.com%2Fa%2Fb", "", "Bearer not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
