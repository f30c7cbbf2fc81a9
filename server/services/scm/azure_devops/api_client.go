package azure_devops

import (
	"context"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

const profileURL = "https://app.vssps.visualstudio.com/_apis/profile/profiles/me?api-version=" + apiVersion

type profile struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	PublicAlias  string `json:"publicAlias"`
}

// APIClient reads the Azure DevOps profile API.
type APIClient struct {
	fetcher *scm.Fetcher
	oauth   *scm.OAuthLinker
	log     logger.Log
}

func NewAPIClient(fetcher *scm.Fetcher, oauth *scm.OAuthLinker, logFactory logger.LogFactory) *APIClient {
	return &APIClient{
		fetcher: fetcher,
		oauth:   oauth,
		log:     logFactory("AzureDevOpsAPIClient"),
	}
}

func (c *APIClient) Name() models.SystemName {
	return models.AzureDevOpsSystem
}

// CurrentUser returns the profile of the token owner. Profiles are global to Azure DevOps
// so serverOrigin only scopes the authentication error.
func (c *APIClient) CurrentUser(ctx context.Context, serverOrigin string, token string) (*scm.User, error) {
	policy := scm.AuthPolicy{Provider: models.AzureDevOpsSystem, ServerOrigin: serverOrigin, OAuth: c.oauth}
	var p profile
	if err := scm.GetAPIJSON(ctx, c.fetcher, policy, profileURL, scm.BearerHeader(token), &p); err != nil {
		return nil, err
	}
	login := p.EmailAddress
	if login == "" {
		login = p.PublicAlias
	}
	return &scm.User{ID: p.ID, Login: login, Name: p.DisplayName}, nil
}
