package models

import (
	"errors"

	"github.com/hashicorp/go-multierror"
)

// PersonalAccessToken is an SCM token held on behalf of a user for one SCM server.
// Tokens are keyed by (UserID, ScmServerOrigin).
type PersonalAccessToken struct {
	ID              string     `json:"id" db:"scm_token_id"`
	UserID          string     `json:"user_id" db:"scm_token_user_id"`
	ScmServerOrigin string     `json:"scm_server_origin" db:"scm_token_server_origin"`
	ProviderName    SystemName `json:"scm_provider" db:"scm_token_provider"`
	// ScmUserName is the login the provider reported for the token, when known.
	ScmUserName string `json:"scm_user_name" db:"scm_token_scm_user_name"`
	Token       string `json:"-" db:"-"`
	CreatedAt   Time   `json:"created_at" db:"scm_token_created_at"`
	UpdatedAt   Time   `json:"updated_at" db:"scm_token_updated_at"`
}

func (m *PersonalAccessToken) Validate() error {
	var result *multierror.Error
	if m.UserID == "" {
		result = multierror.Append(result, errors.New("error user id must be set"))
	}
	if m.ScmServerOrigin == "" {
		result = multierror.Append(result, errors.New("error scm server origin must be set"))
	}
	if m.Token == "" {
		result = multierror.Append(result, errors.New("error token must be set"))
	}
	return result.ErrorOrNil()
}

// AuthorisationHeader renders the token as an HTTP Authorization header value.
func (m *PersonalAccessToken) AuthorisationHeader() string {
	return "Bearer " + m.Token
}
