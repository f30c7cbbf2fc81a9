package scm_credentials

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/store"
)

const (
	tokensTable     = "scm_tokens"
	rejectionsTable = "scm_rejections"
)

type TokenStore struct {
	db *store.DB
	logger.Log
}

func NewTokenStore(db *store.DB, logFactory logger.LogFactory) *TokenStore {
	return &TokenStore{
		db:  db,
		Log: logFactory("ScmTokenStore"),
	}
}

func tokenKey(userID string, serverOrigin string) goqu.Ex {
	return goqu.Ex{
		"scm_token_user_id":       userID,
		"scm_token_server_origin": serverOrigin,
	}
}

// Read the token held for the user on the SCM server.
// Returns gerror.ErrCodeNotFound if no token is held.
func (d *TokenStore) Read(ctx context.Context, txOrNil *store.Tx, userID string, serverOrigin string) (*store.ScmTokenRow, error) {
	row := &store.ScmTokenRow{}
	err := d.db.Read(txOrNil, func(reader store.Reader) error {
		found, err := reader.From(tokensTable).Where(tokenKey(userID, serverOrigin)).ScanStructContext(ctx, row)
		if err != nil {
			return fmt.Errorf("error reading scm token: %w", err)
		}
		if !found {
			return gerror.NewErrNotFound("Not Found").IDetail("scm_server", serverOrigin)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Upsert creates the token row, or replaces the existing row for the same user and SCM server.
// The existing row keeps its ID and creation time.
func (d *TokenStore) Upsert(ctx context.Context, txOrNil *store.Tx, row *store.ScmTokenRow) error {
	return d.db.WithTx(ctx, txOrNil, func(tx *store.Tx) error {
		return d.db.Write(tx, func(writer store.Writer) error {
			res, err := writer.Update(tokensTable).
				Set(goqu.Record{
					"scm_token_provider":           row.ProviderName,
					"scm_token_scm_user_name":      row.ScmUserName,
					"scm_token_encrypted":          row.TokenEncrypted,
					"scm_token_data_key_encrypted": row.DataKeyEncrypted,
					"scm_token_updated_at":         row.UpdatedAt,
				}).
				Where(tokenKey(row.UserID, row.ScmServerOrigin)).
				Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("error updating scm token: %w", store.MakeStandardDBError(err))
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("error reading rows affected updating scm token: %w", err)
			}
			if affected > 0 {
				d.Tracef("Replaced scm token for %s", row.ScmServerOrigin)
				return nil
			}
			_, err = writer.Insert(tokensTable).Rows(row).Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("error inserting scm token: %w", store.MakeStandardDBError(err))
			}
			d.Tracef("Created scm token for %s", row.ScmServerOrigin)
			return nil
		})
	})
}

// Delete permanently and idempotently deletes the token held for the user on the SCM server.
func (d *TokenStore) Delete(ctx context.Context, txOrNil *store.Tx, userID string, serverOrigin string) error {
	return d.db.Write(txOrNil, func(writer store.Writer) error {
		_, err := writer.Delete(tokensTable).Where(tokenKey(userID, serverOrigin)).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("error deleting scm token: %w", err)
		}
		return nil
	})
}

type RejectionStore struct {
	db *store.DB
	logger.Log
}

func NewRejectionStore(db *store.DB, logFactory logger.LogFactory) *RejectionStore {
	return &RejectionStore{
		db:  db,
		Log: logFactory("ScmRejectionStore"),
	}
}

func rejectionKey(userID string, serverOrigin string) goqu.Ex {
	return goqu.Ex{
		"scm_rejection_user_id":       userID,
		"scm_rejection_server_origin": serverOrigin,
	}
}

// Exists returns true if the user declined to authorise access to the SCM server.
func (d *RejectionStore) Exists(ctx context.Context, txOrNil *store.Tx, userID string, serverOrigin string) (bool, error) {
	var count int64
	err := d.db.Read(txOrNil, func(reader store.Reader) error {
		var err error
		count, err = reader.From(rejectionsTable).Where(rejectionKey(userID, serverOrigin)).CountContext(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("error reading scm rejection: %w", err)
	}
	return count > 0, nil
}

// Create records a rejection. Recording a rejection that already exists is not an error.
func (d *RejectionStore) Create(ctx context.Context, txOrNil *store.Tx, rejection *models.AuthorisationRejection) error {
	return d.db.Write(txOrNil, func(writer store.Writer) error {
		_, err := writer.Insert(rejectionsTable).Rows(rejection).Executor().ExecContext(ctx)
		err = store.MakeStandardDBError(err)
		if gerror.IsAlreadyExists(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error inserting scm rejection: %w", err)
		}
		return nil
	})
}

// Delete permanently and idempotently deletes a rejection.
func (d *RejectionStore) Delete(ctx context.Context, txOrNil *store.Tx, userID string, serverOrigin string) error {
	return d.db.Write(txOrNil, func(writer store.Writer) error {
		_, err := writer.Delete(rejectionsTable).Where(rejectionKey(userID, serverOrigin)).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("error deleting scm rejection: %w", err)
		}
		return nil
	})
}
