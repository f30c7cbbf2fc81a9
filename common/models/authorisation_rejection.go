package models

// AuthorisationRejection records that a user declined to authorise access to an SCM server.
// Rejections are keyed by (UserID, ScmServerOrigin).
type AuthorisationRejection struct {
	UserID          string     `json:"user_id" db:"scm_rejection_user_id"`
	ScmServerOrigin string     `json:"scm_server_origin" db:"scm_rejection_server_origin"`
	ProviderName    SystemName `json:"scm_provider" db:"scm_rejection_provider"`
	CreatedAt       Time       `json:"created_at" db:"scm_rejection_created_at"`
}
