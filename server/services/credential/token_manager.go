package credential

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// PersonalAccessTokenManager holds the SCM tokens used on callers' behalf.
type PersonalAccessTokenManager struct {
	store   TokenStore
	source  TokenSource
	clients *scm.APIClientRegistry
	clock   clock.Clock
	logger.Log
}

func NewPersonalAccessTokenManager(
	store TokenStore,
	source TokenSource,
	clients *scm.APIClientRegistry,
	clk clock.Clock,
	logFactory logger.LogFactory,
) *PersonalAccessTokenManager {
	return &PersonalAccessTokenManager{
		store:   store,
		source:  source,
		clients: clients,
		clock:   clk,
		Log:     logFactory("PersonalAccessTokenManager"),
	}
}

// Get returns the token held for the caller on the SCM server.
// Returns gerror.ErrCodeNotFound if no token is held.
func (m *PersonalAccessTokenManager) Get(ctx context.Context, identity models.Identity, serverOrigin string) (*models.PersonalAccessToken, error) {
	if identity.IsAnonymous() {
		return nil, gerror.NewErrNotFound("Not Found").IDetail("scm_server", serverOrigin)
	}
	return m.store.GetToken(ctx, identity.UserID, serverOrigin)
}

// Store saves a token, replacing any token already held for the same user and server.
func (m *PersonalAccessTokenManager) Store(ctx context.Context, token *models.PersonalAccessToken) error {
	if err := token.Validate(); err != nil {
		return gerror.NewErrValidationFailed("Invalid personal access token").Wrap(err)
	}
	now := models.NewTime(m.clock.Now())
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now
	err := m.store.PutToken(ctx, token)
	if err != nil {
		return err
	}
	m.Infof("Stored %s token for user %s on %s", token.ProviderName, token.UserID, token.ScmServerOrigin)
	return nil
}

// ForceRefresh obtains a new token for the caller from the token source, checks it against
// the provider and stores it.
func (m *PersonalAccessTokenManager) ForceRefresh(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (*models.PersonalAccessToken, error) {
	if identity.IsAnonymous() {
		return nil, gerror.NewErrUnauthorized("Sign in to authorise access to an SCM server")
	}
	client, err := m.clients.Get(provider)
	if err != nil {
		return nil, gerror.NewErrValidationFailed("Provider does not support personal access tokens").
			EDetail("scm_provider", provider).Wrap(err)
	}
	token, err := m.source.Token(ctx, identity, provider, serverOrigin)
	if err != nil {
		return nil, err
	}
	user, err := client.CurrentUser(ctx, serverOrigin, token)
	if err != nil {
		m.Warnf("Token for user %s was rejected by %s: %v", identity.UserID, serverOrigin, err)
		return nil, err
	}
	pat := &models.PersonalAccessToken{
		UserID:          identity.UserID,
		ScmServerOrigin: serverOrigin,
		ProviderName:    provider,
		ScmUserName:     user.Login,
		Token:           token,
	}
	err = m.Store(ctx, pat)
	if err != nil {
		return nil, err
	}
	return pat, nil
}

// GetAndStore returns the held token, obtaining and storing one first if none is held.
func (m *PersonalAccessTokenManager) GetAndStore(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (*models.PersonalAccessToken, error) {
	pat, err := m.Get(ctx, identity, serverOrigin)
	if err == nil {
		return pat, nil
	}
	if !gerror.IsNotFound(err) {
		return nil, err
	}
	return m.ForceRefresh(ctx, identity, provider, serverOrigin)
}

// Remove idempotently forgets the token held for the caller on the SCM server.
func (m *PersonalAccessTokenManager) Remove(ctx context.Context, identity models.Identity, serverOrigin string) error {
	if identity.IsAnonymous() {
		return nil
	}
	return m.store.DeleteToken(ctx, identity.UserID, serverOrigin)
}
