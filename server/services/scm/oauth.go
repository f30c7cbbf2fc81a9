package scm

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/bitbucket"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/gitlab"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/models"
)

// OAuthVersion is reported in the oauth_version attribute of authentication errors.
const OAuthVersion = "2.0"

var azureDevOpsEndpoint = oauth2.Endpoint{
	AuthURL:  "https://app.vssps.visualstudio.com/oauth2/authorize",
	TokenURL: "https://app.vssps.visualstudio.com/oauth2/token",
}

// scopes requested when asking a user to authorise access to a provider.
var scopes = map[models.SystemName][]string{
	models.GitHubSystem:      {"repo"},
	models.GitLabSystem:      {"api", "write_repository", "openid"},
	models.BitbucketSystem:   {"repository"},
	models.AzureDevOpsSystem: {"vso.code_write"},
}

type OAuthConfig struct {
	// AuthenticateEndpoint is the endpoint that starts an OAuth flow on the caller's behalf,
	// e.g. https://che.example.com/api/oauth/authenticate.
	AuthenticateEndpoint string
	// RedirectAfterLogin is where the browser should land once the flow completes.
	RedirectAfterLogin string
	// ClientIDs are used to link straight to a provider's authorize page when no
	// AuthenticateEndpoint is configured.
	ClientIDs map[models.SystemName]string
}

// OAuthLinker builds the re-authentication URL carried by AuthenticationRequired errors.
type OAuthLinker struct {
	config OAuthConfig
}

func NewOAuthLinker(config OAuthConfig) *OAuthLinker {
	return &OAuthLinker{config: config}
}

// AuthenticationRequired returns an AuthenticationRequired error for the provider.
func (l *OAuthLinker) AuthenticationRequired(provider models.SystemName, serverOrigin string) gerror.Error {
	return gerror.NewErrAuthenticationRequired(provider.String(), OAuthVersion, l.AuthenticationURL(provider, serverOrigin))
}

// AuthenticationURL returns the URL the caller should visit to authorise access to the provider.
// It is empty if neither an authenticate endpoint nor a client id for the provider is configured.
func (l *OAuthLinker) AuthenticationURL(provider models.SystemName, serverOrigin string) string {
	if l == nil {
		return ""
	}
	if l.config.AuthenticateEndpoint != "" {
		return l.authenticateEndpointURL(provider)
	}
	clientID, ok := l.config.ClientIDs[provider]
	if !ok || clientID == "" {
		return ""
	}
	conf := &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    providerEndpoint(provider, serverOrigin),
		Scopes:      scopes[provider],
		RedirectURL: l.config.RedirectAfterLogin,
	}
	return conf.AuthCodeURL(uuid.NewString())
}

// authenticateEndpointURL keeps parameters in the order the dashboard expects rather
// than the sorted order url.Values would produce.
func (l *OAuthLinker) authenticateEndpointURL(provider models.SystemName) string {
	var sb strings.Builder
	sb.WriteString(l.config.AuthenticateEndpoint)
	sb.WriteString("?oauth_provider=")
	sb.WriteString(url.QueryEscape(provider.String()))
	sb.WriteString("&scope=")
	sb.WriteString(url.QueryEscape(strings.Join(scopes[provider], " ")))
	sb.WriteString("&request_method=POST&signature_method=rsa")
	if l.config.RedirectAfterLogin != "" {
		sb.WriteString("&redirect_after_login=")
		sb.WriteString(url.QueryEscape(l.config.RedirectAfterLogin))
	}
	return sb.String()
}

// providerEndpoint returns the public OAuth endpoint for SaaS hosts and a derived one
// for self-hosted servers.
func providerEndpoint(provider models.SystemName, serverOrigin string) oauth2.Endpoint {
	origin := strings.TrimRight(serverOrigin, "/")
	switch provider {
	case models.GitHubSystem:
		if origin == "" || origin == "https://github.com" {
			return github.Endpoint
		}
		return oauth2.Endpoint{AuthURL: origin + "/login/oauth/authorize", TokenURL: origin + "/login/oauth/access_token"}
	case models.GitLabSystem:
		if origin == "" || origin == "https://gitlab.com" {
			return gitlab.Endpoint
		}
		return oauth2.Endpoint{AuthURL: origin + "/oauth/authorize", TokenURL: origin + "/oauth/token"}
	case models.BitbucketSystem:
		if origin == "" || origin == "https://bitbucket.org" {
			return bitbucket.Endpoint
		}
		return oauth2.Endpoint{AuthURL: origin + "/rest/oauth2/latest/authorize", TokenURL: origin + "/rest/oauth2/latest/token"}
	case models.AzureDevOpsSystem:
		return azureDevOpsEndpoint
	default:
		return oauth2.Endpoint{AuthURL: origin + "/oauth/authorize", TokenURL: origin + "/oauth/token"}
	}
}
