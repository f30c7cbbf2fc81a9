package services

import (
	"context"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

type FactoryService interface {
	// ResolveFactory turns the parameters into a factory using the highest priority resolver that
	// accepts them. authorization is the caller's inbound Authorization header.
	// Returns gerror.ErrCodeNoMatchingResolver if no resolver accepts the parameters, and an
	// AuthenticationRequired error, unchanged, if an SCM asked the caller to authenticate.
	ResolveFactory(ctx context.Context, identity models.Identity, authorization string, params models.FactoryParameters) (*models.Factory, error)
	// RefreshToken makes sure a token is held for the SCM server hosting repositoryURL, unless
	// the caller previously declined to authorise access to that server.
	RefreshToken(ctx context.Context, identity models.Identity, repositoryURL string) error
	// RejectAuthorisation records that the caller declined to authorise access to the SCM
	// server hosting repositoryURL. Later token refreshes for that server are skipped.
	RejectAuthorisation(ctx context.Context, identity models.Identity, repositoryURL string) error
	// ClearRejection forgets a declined authorisation. Clearing one that does not exist is not an error.
	ClearRejection(ctx context.Context, identity models.Identity, repositoryURL string) error
}

type SCMFileService interface {
	// ResolveFile fetches filePath from the repository. If filePath is empty the configured
	// candidate filenames are tried in turn.
	ResolveFile(ctx context.Context, identity models.Identity, authorization string, repositoryURL string, filePath string) (*scm.FileContent, error)
}

type PersonalAccessTokenManager interface {
	// Get returns the token held for the caller on the SCM server.
	// Returns gerror.ErrCodeNotFound if no token is held.
	Get(ctx context.Context, identity models.Identity, serverOrigin string) (*models.PersonalAccessToken, error)
	// Store saves a token, replacing any token already held for the same user and server.
	Store(ctx context.Context, token *models.PersonalAccessToken) error
	// ForceRefresh obtains a new token for the caller from the OAuth token source, checks it
	// against the provider and stores it.
	ForceRefresh(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (*models.PersonalAccessToken, error)
	// GetAndStore returns the held token, obtaining and storing one first if none is held.
	GetAndStore(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) (*models.PersonalAccessToken, error)
}

type AuthorisationRequestManager interface {
	// IsStored returns true if the caller declined to authorise access to the SCM server.
	IsStored(ctx context.Context, identity models.Identity, serverOrigin string) (bool, error)
	// Store records that the caller declined to authorise access to the SCM server.
	Store(ctx context.Context, identity models.Identity, provider models.SystemName, serverOrigin string) error
	// Remove clears a recorded rejection. Removing a rejection that does not exist is not an error.
	Remove(ctx context.Context, identity models.Identity, serverOrigin string) error
}

// AuthorisationForwarder picks the Authorization header sent to an SCM server.
type AuthorisationForwarder interface {
	// Header returns the header to send when fetching from repositoryURL on the caller's behalf.
	// inbound is the Authorization header the caller supplied, which is used when no token is held.
	Header(ctx context.Context, identity models.Identity, repositoryURL string, inbound string) string
}
