package credential

import (
	"context"

	"github.com/devboard/devboard/common/models"
)

// TokenStore holds personal access tokens keyed by (UserID, ScmServerOrigin).
type TokenStore interface {
	// GetToken returns the token held for the user on the SCM server.
	// Returns gerror.ErrCodeNotFound if no token is held.
	GetToken(ctx context.Context, userID string, serverOrigin string) (*models.PersonalAccessToken, error)
	// PutToken saves the token, replacing any token held for the same user and SCM server.
	PutToken(ctx context.Context, token *models.PersonalAccessToken) error
	// DeleteToken idempotently removes the token held for the user on the SCM server.
	DeleteToken(ctx context.Context, userID string, serverOrigin string) error
}

// RejectionStore holds the SCM servers each user declined to authorise access to.
type RejectionStore interface {
	HasRejection(ctx context.Context, userID string, serverOrigin string) (bool, error)
	// PutRejection records a rejection. Recording a rejection twice is not an error.
	PutRejection(ctx context.Context, rejection *models.AuthorisationRejection) error
	// DeleteRejection idempotently removes a rejection.
	DeleteRejection(ctx context.Context, userID string, serverOrigin string) error
}

// Store is a complete credential backend.
type Store interface {
	TokenStore
	RejectionStore
}

type StoreKind string

const (
	MemoryStoreKind   StoreKind = "memory"
	DatabaseStoreKind StoreKind = "database"
	RedisStoreKind    StoreKind = "redis"
)

func (k StoreKind) String() string {
	return string(k)
}

func (k StoreKind) Valid() bool {
	switch k {
	case MemoryStoreKind, DatabaseStoreKind, RedisStoreKind:
		return true
	default:
		return false
	}
}
