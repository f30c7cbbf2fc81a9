package credential

import (
	"context"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/encryption"
	"github.com/devboard/devboard/server/store"
)

// DatabaseStore persists credentials in the server database with tokens envelope encrypted.
type DatabaseStore struct {
	tokenStore     store.ScmTokenStore
	rejectionStore store.ScmRejectionStore
	cipher         *encryption.TokenCipher
}

func NewDatabaseStore(
	tokenStore store.ScmTokenStore,
	rejectionStore store.ScmRejectionStore,
	cipher *encryption.TokenCipher,
) *DatabaseStore {
	return &DatabaseStore{
		tokenStore:     tokenStore,
		rejectionStore: rejectionStore,
		cipher:         cipher,
	}
}

func (s *DatabaseStore) GetToken(ctx context.Context, userID string, serverOrigin string) (*models.PersonalAccessToken, error) {
	row, err := s.tokenStore.Read(ctx, nil, userID, serverOrigin)
	if err != nil {
		return nil, err
	}
	return openToken(ctx, s.cipher, &sealedToken{
		PersonalAccessToken: row.PersonalAccessToken,
		TokenEncrypted:      row.TokenEncrypted,
		DataKeyEncrypted:    row.DataKeyEncrypted,
	})
}

func (s *DatabaseStore) PutToken(ctx context.Context, token *models.PersonalAccessToken) error {
	sealed, err := sealToken(ctx, s.cipher, token)
	if err != nil {
		return err
	}
	return s.tokenStore.Upsert(ctx, nil, &store.ScmTokenRow{
		PersonalAccessToken: sealed.PersonalAccessToken,
		TokenEncrypted:      sealed.TokenEncrypted,
		DataKeyEncrypted:    sealed.DataKeyEncrypted,
	})
}

func (s *DatabaseStore) DeleteToken(ctx context.Context, userID string, serverOrigin string) error {
	return s.tokenStore.Delete(ctx, nil, userID, serverOrigin)
}

func (s *DatabaseStore) HasRejection(ctx context.Context, userID string, serverOrigin string) (bool, error) {
	return s.rejectionStore.Exists(ctx, nil, userID, serverOrigin)
}

func (s *DatabaseStore) PutRejection(ctx context.Context, rejection *models.AuthorisationRejection) error {
	return s.rejectionStore.Create(ctx, nil, rejection)
}

func (s *DatabaseStore) DeleteRejection(ctx context.Context, userID string, serverOrigin string) error {
	return s.rejectionStore.Delete(ctx, nil, userID, serverOrigin)
}
