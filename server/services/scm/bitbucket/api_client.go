package bitbucket

import (
	"context"
	"net/http"
	"strings"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

type cloudUser struct {
	UUID        string `json:"uuid"`
	AccountID   string `json:"account_id"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"display_name"`
}

type serverUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
}

// APIClient reads the bitbucket.org 2.0 API or the Bitbucket Server 1.0 API.
type APIClient struct {
	fetcher *scm.Fetcher
	oauth   *scm.OAuthLinker
	log     logger.Log
}

func NewAPIClient(fetcher *scm.Fetcher, oauth *scm.OAuthLinker, logFactory logger.LogFactory) *APIClient {
	return &APIClient{
		fetcher: fetcher,
		oauth:   oauth,
		log:     logFactory("BitbucketAPIClient"),
	}
}

func (c *APIClient) Name() models.SystemName {
	return models.BitbucketSystem
}

func (c *APIClient) CurrentUser(ctx context.Context, serverOrigin string, token string) (*scm.User, error) {
	origin := strings.TrimRight(serverOrigin, "/")
	if origin == "" {
		origin = publicOrigin
	}
	policy := scm.AuthPolicy{Provider: models.BitbucketSystem, ServerOrigin: origin, OAuth: c.oauth}
	if origin == publicOrigin {
		var u cloudUser
		if err := scm.GetAPIJSON(ctx, c.fetcher, policy, apiOrigin+"/2.0/user", scm.BearerHeader(token), &u); err != nil {
			return nil, err
		}
		login := u.Username
		if login == "" {
			login = u.Nickname
		}
		return &scm.User{ID: u.AccountID, Login: login, Name: u.DisplayName}, nil
	}
	// Bitbucket Server returns the token owner's slug as the body of the whoami servlet.
	resp, err := c.fetcher.GetWithHeader(ctx, origin+"/plugins/servlet/applinks/whoami", scm.BearerHeader(token))
	if err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(string(resp.Body))
	if resp.StatusCode != http.StatusOK || slug == "" {
		return nil, policy.AuthenticationRequired()
	}
	var u serverUser
	if err := scm.GetAPIJSON(ctx, c.fetcher, policy, origin+"/rest/api/1.0/users/"+slug, scm.BearerHeader(token), &u); err != nil {
		return nil, err
	}
	return &scm.User{ID: u.Slug, Login: u.Name, Name: u.DisplayName}, nil
}
