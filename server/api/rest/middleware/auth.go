package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
)

type identityContextKey struct{}

// IdentityVerifier turns a bearer token into the identity it names.
type IdentityVerifier interface {
	Identity(token string) (models.Identity, error)
}

// ErrorWriter renders an error as an API response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Identity returns the identity of the caller, or models.AnonymousIdentity if the request
// was not authenticated.
func Identity(r *http.Request) models.Identity {
	identity, ok := r.Context().Value(identityContextKey{}).(models.Identity)
	if !ok {
		return models.AnonymousIdentity
	}
	return identity
}

// WithIdentity returns a copy of ctx carrying the identity.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// MakeJWTAuthenticator makes a middleware that reads the caller's identity from a JWT supplied
// as a bearer token. The Authorization header may instead carry a credential meant for an SCM
// provider, so a bearer token that is not a valid identity JWT leaves the request anonymous
// rather than failing it.
func MakeJWTAuthenticator(log logger.Log, verifier IdentityVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "

			if len(authHeader) > len(bearerPrefix) && strings.HasPrefix(strings.ToLower(authHeader), strings.ToLower(bearerPrefix)) {
				token := strings.TrimSpace(authHeader[len(bearerPrefix):])
				identity, err := verifier.Identity(token)
				if err != nil {
					log.Tracef("Treating request as anonymous; bearer token is not an identity token: %v", err)
				} else {
					r = r.WithContext(WithIdentity(r.Context(), identity))
					log.Tracef("Authenticated user %q using JWT", identity.UserID)
				}
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// MakeMustAuthenticate makes a middleware that enforces that the request must be authenticated.
// If the request is not authenticated then a 401 error is written using onError.
func MakeMustAuthenticate(onError ErrorWriter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if Identity(r).IsAnonymous() {
				onError(w, r, gerror.NewErrUnauthorized("Unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
