package gerror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeInternal               Code = "Internal"
	ErrCodeValidationFailed       Code = "ValidationFailed"
	ErrCodeInvalidQueryParameter  Code = "InvalidQueryParameter"
	ErrCodeNotFound               Code = "NotFound"
	ErrCodeAlreadyExists          Code = "AlreadyExists"
	ErrCodeNoMatchingFile         Code = "NoMatchingFile"
	ErrCodeNoMatchingResolver     Code = "NoMatchingResolver"
	ErrCodeUnauthorized           Code = "Unauthorized"
	ErrCodeAuthenticationRequired Code = "AuthenticationRequired"
	ErrCodeCommunicationFailed    Code = "CommunicationFailed"
)

// Detail keys carried by an AuthenticationRequired error. They are rendered verbatim
// as the "attributes" of the 401 response body.
const (
	DetailOAuthProvider          DetailKey = "oauth_provider"
	DetailOAuthVersion           DetailKey = "oauth_version"
	DetailOAuthAuthenticationURL DetailKey = "oauth_authentication_url"
)

// Detail keys carried by a CommunicationFailed error.
const (
	DetailUpstreamURL    DetailKey = "upstream_url"
	DetailUpstreamStatus DetailKey = "upstream_status"
	DetailUpstreamBody   DetailKey = "upstream_body"
)

// ToError locates an Error in the provided error chain and returns it if it
// matches the provided code. Otherwise, returns nil.
func ToError(err error, code Code) *Error {
	if err == nil {
		return nil
	}
	var gErr Error
	if errors.As(err, &gErr) && gErr.Code() == code {
		return &gErr
	}
	return nil
}

func NewErrInternal() Error {
	return NewError(
		"An internal server error occurred",
		AudienceExternal,
		ErrCodeInternal,
		http.StatusInternalServerError,
		nil,
	)
}

func ToInternal(err error) *Error {
	return ToError(err, ErrCodeInternal)
}

func IsInternal(err error) bool {
	return ToInternal(err) != nil
}

func NewErrValidationFailed(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeValidationFailed, http.StatusBadRequest, nil)
}

func ToValidationFailed(err error) *Error {
	return ToError(err, ErrCodeValidationFailed)
}

func IsValidationFailed(err error) bool {
	return ToValidationFailed(err) != nil
}

func NewErrInvalidQueryParameter(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeInvalidQueryParameter, http.StatusBadRequest, nil)
}

func ToInvalidQueryParameter(err error) *Error {
	return ToError(err, ErrCodeInvalidQueryParameter)
}

func IsInvalidQueryParameter(err error) bool {
	return ToInvalidQueryParameter(err) != nil
}

func NewErrNotFound(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeNotFound, http.StatusNotFound, nil)
}

func ToNotFound(err error) *Error {
	return ToError(err, ErrCodeNotFound)
}

func IsNotFound(err error) bool {
	return ToNotFound(err) != nil
}

func NewErrAlreadyExists(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeAlreadyExists, http.StatusConflict, nil)
}

func ToAlreadyExists(err error) *Error {
	return ToError(err, ErrCodeAlreadyExists)
}

func IsAlreadyExists(err error) bool {
	return ToAlreadyExists(err) != nil
}

// NewErrNoMatchingFile is returned when every candidate location for a file was tried
// and none produced content. attempted lists each candidate that was tried.
func NewErrNoMatchingFile(attempted []string, inner error) Error {
	msg := fmt.Sprintf("No matching file found; tried %v", attempted)
	return NewError(msg, AudienceExternal, ErrCodeNoMatchingFile, http.StatusNotFound, inner)
}

func ToNoMatchingFile(err error) *Error {
	return ToError(err, ErrCodeNoMatchingFile)
}

func IsNoMatchingFile(err error) bool {
	return ToNoMatchingFile(err) != nil
}

func NewErrNoMatchingResolver(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeNoMatchingResolver, http.StatusBadRequest, nil)
}

func ToNoMatchingResolver(err error) *Error {
	return ToError(err, ErrCodeNoMatchingResolver)
}

func IsNoMatchingResolver(err error) bool {
	return ToNoMatchingResolver(err) != nil
}

func NewErrUnauthorized(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeUnauthorized, http.StatusUnauthorized, nil)
}

func ToUnauthorized(err error) *Error {
	return ToError(err, ErrCodeUnauthorized)
}

func IsUnauthorized(err error) bool {
	return ToUnauthorized(err) != nil
}

// NewErrAuthenticationRequired signals that the caller must complete an OAuth flow with
// the named provider before the requested resource can be read.
func NewErrAuthenticationRequired(provider string, version string, authenticationURL string) Error {
	return NewError(
		fmt.Sprintf("SCM Authentication required for %s", provider),
		AudienceExternal,
		ErrCodeAuthenticationRequired,
		http.StatusUnauthorized,
		nil,
	).
		EDetail(DetailOAuthProvider, provider).
		EDetail(DetailOAuthVersion, version).
		EDetail(DetailOAuthAuthenticationURL, authenticationURL)
}

func ToAuthenticationRequired(err error) *Error {
	return ToError(err, ErrCodeAuthenticationRequired)
}

func IsAuthenticationRequired(err error) bool {
	return ToAuthenticationRequired(err) != nil
}

// NewErrCommunicationFailed reports a network failure or an unexpected upstream status.
// status is zero when no response was received.
func NewErrCommunicationFailed(url string, status int, bodyExcerpt string, inner error) Error {
	msg := "Error communicating with source control provider"
	if status != 0 {
		msg = fmt.Sprintf("%s: unexpected status %d", msg, status)
	}
	e := NewError(msg, AudienceExternal, ErrCodeCommunicationFailed, http.StatusInternalServerError, inner).
		IDetail(DetailUpstreamURL, url)
	if status != 0 {
		e = e.EDetail(DetailUpstreamStatus, status).EDetail(DetailUpstreamBody, bodyExcerpt)
	}
	return e
}

func ToCommunicationFailed(err error) *Error {
	return ToError(err, ErrCodeCommunicationFailed)
}

func IsCommunicationFailed(err error) bool {
	return ToCommunicationFailed(err) != nil
}
