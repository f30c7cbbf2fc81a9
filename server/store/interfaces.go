package store

import (
	"context"

	"github.com/devboard/devboard/common/models"
)

// ScmTokenRow is a persisted token. The token itself is stored envelope encrypted.
type ScmTokenRow struct {
	models.PersonalAccessToken
	TokenEncrypted   []byte `db:"scm_token_encrypted"`
	DataKeyEncrypted []byte `db:"scm_token_data_key_encrypted"`
}

type ScmTokenStore interface {
	// Read the token held for the user on the SCM server.
	// Returns gerror.ErrCodeNotFound if no token is held.
	Read(ctx context.Context, txOrNil *Tx, userID string, serverOrigin string) (*ScmTokenRow, error)
	// Upsert creates the token row, or replaces the existing row for the same user and SCM server.
	// A replaced row keeps its ID and creation time.
	Upsert(ctx context.Context, txOrNil *Tx, row *ScmTokenRow) error
	// Delete permanently and idempotently deletes the token held for the user on the SCM server.
	Delete(ctx context.Context, txOrNil *Tx, userID string, serverOrigin string) error
}

type ScmRejectionStore interface {
	// Exists returns true if the user declined to authorise access to the SCM server.
	Exists(ctx context.Context, txOrNil *Tx, userID string, serverOrigin string) (bool, error)
	// Create records a rejection. Recording a rejection that already exists is not an error.
	Create(ctx context.Context, txOrNil *Tx, rejection *models.AuthorisationRejection) error
	// Delete permanently and idempotently deletes a rejection.
	Delete(ctx context.Context, txOrNil *Tx, userID string, serverOrigin string) error
}
