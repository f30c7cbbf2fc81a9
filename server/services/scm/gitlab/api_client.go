package gitlab

import (
	"context"
	"strconv"
	"strings"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

type user struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// APIClient reads the GitLab REST API (v4).
type APIClient struct {
	fetcher *scm.Fetcher
	oauth   *scm.OAuthLinker
	log     logger.Log
}

func NewAPIClient(fetcher *scm.Fetcher, oauth *scm.OAuthLinker, logFactory logger.LogFactory) *APIClient {
	return &APIClient{
		fetcher: fetcher,
		oauth:   oauth,
		log:     logFactory("GitLabAPIClient"),
	}
}

func (c *APIClient) Name() models.SystemName {
	return models.GitLabSystem
}

func (c *APIClient) CurrentUser(ctx context.Context, serverOrigin string, token string) (*scm.User, error) {
	origin := strings.TrimRight(serverOrigin, "/")
	if origin == "" {
		origin = publicOrigin
	}
	policy := scm.AuthPolicy{Provider: models.GitLabSystem, ServerOrigin: origin, OAuth: c.oauth}
	var u user
	if err := scm.GetAPIJSON(ctx, c.fetcher, policy, origin+"/api/v4/user", scm.BearerHeader(token), &u); err != nil {
		return nil, err
	}
	return &scm.User{ID: strconv.FormatInt(u.ID, 10), Login: u.Username, Name: u.Name}, nil
}
