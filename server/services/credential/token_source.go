package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// TokenSource obtains a fresh SCM token on a caller's behalf.
type TokenSource interface {
	// Token returns a token for the caller on the SCM server. Returns an AuthenticationRequired
	// error if the caller has not authorised access to the provider.
	Token(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (string, error)
}

type OAuthTokenSourceConfig struct {
	// Endpoint is the base of the OAuth API that holds tokens from completed OAuth flows,
	// e.g. https://che.example.com/api/oauth. Tokens are read from {Endpoint}/token.
	Endpoint string
}

// OAuthAPITokenSource reads tokens from the OAuth API, authenticating as the caller.
type OAuthAPITokenSource struct {
	endpoint string
	fetcher  *scm.Fetcher
	oauth    *scm.OAuthLinker
	logger.Log
}

func NewOAuthAPITokenSource(
	config OAuthTokenSourceConfig,
	fetcher *scm.Fetcher,
	oauth *scm.OAuthLinker,
	logFactory logger.LogFactory,
) *OAuthAPITokenSource {
	return &OAuthAPITokenSource{
		endpoint: strings.TrimRight(config.Endpoint, "/"),
		fetcher:  fetcher,
		oauth:    oauth,
		Log:      logFactory("OAuthAPITokenSource"),
	}
}

type oauthToken struct {
	Token string `json:"token"`
	Scope string `json:"scope"`
}

func (s *OAuthAPITokenSource) Token(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (string, error) {
	if s.endpoint == "" {
		s.Debugf("No OAuth API endpoint configured; %s must be authorised by the caller", provider)
		return "", s.oauth.AuthenticationRequired(provider, serverOrigin)
	}
	tokenURL := s.endpoint + "/token?oauth_provider=" + url.QueryEscape(provider.String())
	header := http.Header{}
	if identity.Token != "" {
		header = scm.BearerHeader(identity.Token)
	}
	header.Set("Accept", "application/json")
	resp, err := s.fetcher.GetWithHeader(ctx, tokenURL, header)
	if err != nil {
		return "", gerror.NewErrCommunicationFailed(tokenURL, 0, "", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return "", s.oauth.AuthenticationRequired(provider, serverOrigin)
	default:
		return "", gerror.NewErrCommunicationFailed(tokenURL, resp.StatusCode, resp.BodyExcerpt(), nil)
	}
	token := &oauthToken{}
	if err := json.Unmarshal(resp.Body, token); err != nil {
		return "", fmt.Errorf("error decoding OAuth token response: %w", err)
	}
	if token.Token == "" {
		return "", s.oauth.AuthenticationRequired(provider, serverOrigin)
	}
	return token.Token, nil
}
