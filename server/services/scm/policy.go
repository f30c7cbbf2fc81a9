package scm

import (
	"net/http"
	"strings"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/models"
)

// Outcome classifies a single fetch attempt.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeAuthenticationRequired
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeAuthenticationRequired:
		return "authentication-required"
	default:
		return "failed"
	}
}

// FetchResult is the typed result of fetching one FileLocation. Err is set for every
// outcome except OutcomeFound.
type FetchResult struct {
	Outcome  Outcome
	Location FileLocation
	Content  []byte
	Err      error
}

// AuthPolicy decides what an SCM response means for one provider. A 404 from an SCM is
// ambiguous: it is returned both for missing files and for private repositories the
// caller cannot see.
type AuthPolicy struct {
	Provider     models.SystemName
	ServerOrigin string
	// SupportedSchemes lists the Authorization schemes (lower case) the provider honours.
	// A credential of any other scheme is treated as if no credential was supplied.
	SupportedSchemes []string
	OAuth            *OAuthLinker
	// PlainNotFound makes every 404 a not found result. It is set for servers that have
	// no OAuth flow the caller could be sent through.
	PlainNotFound bool
}

// AuthorisationScheme returns the lower cased scheme of an Authorization header value.
func AuthorisationScheme(authorization string) string {
	scheme := strings.TrimSpace(authorization)
	if i := strings.IndexByte(scheme, ' '); i >= 0 {
		scheme = scheme[:i]
	}
	return strings.ToLower(scheme)
}

// SupportsCredential returns true if authorization uses a scheme the provider honours.
func (p AuthPolicy) SupportsCredential(authorization string) bool {
	scheme := AuthorisationScheme(authorization)
	for _, s := range p.SupportedSchemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// AuthenticationRequired returns the error that asks the caller to authenticate with the provider.
func (p AuthPolicy) AuthenticationRequired() gerror.Error {
	return p.OAuth.AuthenticationRequired(p.Provider, p.ServerOrigin)
}

// Classify turns the response to a fetch of location into a typed result.
//
//	401, 403                          -> authentication required
//	404, no credential                -> authentication required
//	404, credential of unsupported type -> authentication required
//	404, supported credential         -> not found
//	other >= 400                      -> communication failure
//	anything else                     -> found
func (p AuthPolicy) Classify(location FileLocation, resp *Response, fetchErr error, authorization string) FetchResult {
	result := FetchResult{Location: location}
	if fetchErr != nil {
		if gerror.IsAuthenticationRequired(fetchErr) {
			result.Outcome = OutcomeAuthenticationRequired
			result.Err = fetchErr
			return result
		}
		result.Outcome = OutcomeFailed
		result.Err = gerror.NewErrCommunicationFailed(location.ResolvedURL, 0, "", fetchErr)
		return result
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		result.Outcome = OutcomeAuthenticationRequired
		result.Err = p.AuthenticationRequired()
	case resp.StatusCode == http.StatusNotFound && !p.PlainNotFound && (authorization == "" || !p.SupportsCredential(authorization)):
		result.Outcome = OutcomeAuthenticationRequired
		result.Err = p.AuthenticationRequired()
	case resp.StatusCode == http.StatusNotFound:
		result.Outcome = OutcomeNotFound
		result.Err = gerror.NewErrNotFound("File not found").EDetail("file", location.String())
	case resp.StatusCode >= http.StatusBadRequest:
		result.Outcome = OutcomeFailed
		result.Err = gerror.NewErrCommunicationFailed(location.ResolvedURL, resp.StatusCode, resp.BodyExcerpt(), nil)
	default:
		result.Outcome = OutcomeFound
		result.Content = resp.Body
	}
	return result
}
