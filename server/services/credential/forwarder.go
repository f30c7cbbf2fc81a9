package credential

import (
	"context"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
)

// Forwarder sends the caller's stored token for the SCM server when one is held, and the
// caller's own Authorization header otherwise.
type Forwarder struct {
	config providers.Config
	tokens services.PersonalAccessTokenManager
	logger.Log
}

func NewForwarder(config providers.Config, tokens services.PersonalAccessTokenManager, logFactory logger.LogFactory) *Forwarder {
	return &Forwarder{
		config: config,
		tokens: tokens,
		Log:    logFactory("AuthorisationForwarder"),
	}
}

func (f *Forwarder) Header(ctx context.Context, identity models.Identity, repositoryURL string, inbound string) string {
	origin, ok := f.serverOrigin(repositoryURL)
	if !ok {
		return inbound
	}
	pat, err := f.tokens.Get(ctx, identity, origin)
	if err != nil {
		if !gerror.IsNotFound(err) {
			f.Warnf("Ignoring error reading token for %s: %v", origin, err)
		}
		return inbound
	}
	return pat.AuthorisationHeader()
}

// serverOrigin returns the origin tokens for repositoryURL are stored under. Provider URLs
// use the parser's normalised origin so aliases such as www.github.com share one token.
func (f *Forwarder) serverOrigin(repositoryURL string) (string, bool) {
	if repo, ok := providers.ParseRepositoryURL(repositoryURL, f.config); ok {
		return repo.ServerOrigin(), true
	}
	u, err := scm.ParseURL(repositoryURL)
	if err != nil {
		return "", false
	}
	return scm.Origin(u), true
}

// InboundOnly always forwards the caller's own Authorization header.
type InboundOnly struct{}

func (InboundOnly) Header(ctx context.Context, identity models.Identity, repositoryURL string, inbound string) string {
	return inbound
}
