package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/models"
)

const (
	DefaultJWTExpiryDuration = 24 * time.Hour
	DefaultJWTIssuer         = "devboard"
)

// IdentityTokenClaims are the claims read from a caller's bearer token. Subject is the user ID.
type IdentityTokenClaims struct {
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// CreateIdentityJWT creates an HS256 signed JWT naming the identity as its subject.
func CreateIdentityJWT(
	identity models.Identity,
	issuer string,
	expiryDuration time.Duration,
	key []byte,
) (string, *IdentityTokenClaims, error) {
	now := time.Now()
	claims := &IdentityTokenClaims{
		PreferredUsername: identity.UserName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   identity.UserID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// IdentityVerifier turns bearer tokens into identities. With no key configured the token's
// signature is not checked, and the gateway in front of the server is trusted to have done so.
type IdentityVerifier struct {
	key []byte
}

func NewIdentityVerifier(key []byte) *IdentityVerifier {
	return &IdentityVerifier{key: key}
}

// Identity returns the identity named by the bearer token. The returned identity carries the
// token so it can be presented to the OAuth API on the caller's behalf.
func (v *IdentityVerifier) Identity(tokenStr string) (models.Identity, error) {
	claims := &IdentityTokenClaims{}
	var err error
	if len(v.key) == 0 {
		_, _, err = jwt.NewParser().ParseUnverified(tokenStr, claims)
		if err == nil {
			err = claims.Valid()
		}
	} else {
		_, err = jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("error unexpected signing method: %v", token.Header["alg"])
			}
			return v.key, nil
		})
	}
	if err != nil {
		return models.Identity{}, gerror.NewErrUnauthorized("Invalid bearer token").Wrap(err)
	}
	if claims.Subject == "" {
		return models.Identity{}, gerror.NewErrUnauthorized("Bearer token does not name a user")
	}
	userName := claims.PreferredUsername
	if userName == "" {
		userName = claims.Name
	}
	return models.Identity{
		UserID:   claims.Subject,
		UserName: userName,
		Token:    tokenStr,
	}, nil
}
