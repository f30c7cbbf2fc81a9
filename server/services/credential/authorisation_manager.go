package credential

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
)

// AuthorisationRequestManager remembers which SCM servers each caller declined to
// authorise access to, so they are not asked again.
type AuthorisationRequestManager struct {
	store RejectionStore
	clock clock.Clock
	logger.Log
}

func NewAuthorisationRequestManager(store RejectionStore, clk clock.Clock, logFactory logger.LogFactory) *AuthorisationRequestManager {
	return &AuthorisationRequestManager{
		store: store,
		clock: clk,
		Log:   logFactory("AuthorisationRequestManager"),
	}
}

func (m *AuthorisationRequestManager) IsStored(ctx context.Context, identity models.Identity, serverOrigin string) (bool, error) {
	if identity.IsAnonymous() {
		return false, nil
	}
	return m.store.HasRejection(ctx, identity.UserID, serverOrigin)
}

func (m *AuthorisationRequestManager) Store(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) error {
	if identity.IsAnonymous() {
		return gerror.NewErrUnauthorized("Sign in to decline access to an SCM server")
	}
	err := m.store.PutRejection(ctx, &models.AuthorisationRejection{
		UserID:          identity.UserID,
		ScmServerOrigin: serverOrigin,
		ProviderName:    provider,
		CreatedAt:       models.NewTime(m.clock.Now()),
	})
	if err != nil {
		return err
	}
	m.Infof("User %s declined access to %s", identity.UserID, serverOrigin)
	return nil
}

func (m *AuthorisationRequestManager) Remove(ctx context.Context, identity models.Identity, serverOrigin string) error {
	if identity.IsAnonymous() {
		return nil
	}
	return m.store.DeleteRejection(ctx, identity.UserID, serverOrigin)
}
