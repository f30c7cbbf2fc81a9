package documents

import "github.com/devboard/devboard/common/gerror"

// ErrorDocument is the standard error representation returned by the API.
type ErrorDocument struct {
	Error   gerror.Code                      `json:"error"`
	Message string                           `json:"message"`
	Details map[gerror.DetailKey]interface{} `json:"details,omitempty"`
	// InternalError is only set when the server runs in development mode.
	InternalError string `json:"internal_error,omitempty"`
}

// AuthenticationRequiredDocument is returned with a 401 when the caller must complete an
// OAuth flow with an SCM provider. The dashboard reads Attributes to start the flow.
type AuthenticationRequiredDocument struct {
	ErrorCode  int                              `json:"errorCode"`
	Message    string                           `json:"message"`
	Attributes map[gerror.DetailKey]interface{} `json:"attributes"`
}
