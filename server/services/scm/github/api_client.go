package github

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v28/github"
	"golang.org/x/oauth2"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// APIClient reads the GitHub REST API on behalf of a token holder.
type APIClient struct {
	httpClient *http.Client
	oauth      *scm.OAuthLinker
	log        logger.Log
}

// NewAPIClient creates a client. httpClient is the base client OAuth requests are
// layered on; pass nil to use http.DefaultClient.
func NewAPIClient(httpClient *http.Client, oauth *scm.OAuthLinker, logFactory logger.LogFactory) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{
		httpClient: httpClient,
		oauth:      oauth,
		log:        logFactory("GitHubAPIClient"),
	}
}

func (c *APIClient) Name() models.SystemName {
	return models.GitHubSystem
}

func (c *APIClient) CurrentUser(ctx context.Context, serverOrigin string, token string) (*scm.User, error) {
	client, err := c.makeGitHubOAuthClient(ctx, serverOrigin, token)
	if err != nil {
		return nil, err
	}
	user, res, err := client.Users.Get(ctx, "")
	if err != nil {
		if res != nil && (res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden) {
			return nil, c.oauth.AuthenticationRequired(models.GitHubSystem, serverOrigin)
		}
		status := 0
		if res != nil {
			status = res.StatusCode
		}
		return nil, gerror.NewErrCommunicationFailed(serverOrigin, status, err.Error(), err)
	}
	c.log.Debugf("Token belongs to GitHub user %q", user.GetLogin())
	return &scm.User{
		ID:    strconv.FormatInt(user.GetID(), 10),
		Login: user.GetLogin(),
		Name:  user.GetName(),
	}, nil
}

// makeGitHubOAuthClient creates a go-github client authenticated with token. Servers
// other than github.com are treated as GitHub Enterprise.
func (c *APIClient) makeGitHubOAuthClient(ctx context.Context, serverOrigin string, token string) (*github.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, src)
	origin := strings.TrimRight(serverOrigin, "/")
	if origin == "" || origin == publicOrigin {
		return github.NewClient(httpClient), nil
	}
	client, err := github.NewEnterpriseClient(origin+"/api/v3/", origin+"/api/uploads/", httpClient)
	if err != nil {
		return nil, gerror.NewErrValidationFailed("Invalid GitHub Enterprise server").EDetail("server", serverOrigin).Wrap(err)
	}
	return client, nil
}
