package models

// Identity is the caller on whose behalf a request is made. UserID scopes every
// credential the server stores; Token is the caller's own bearer token.
type Identity struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Token    string `json:"-"`
}

// AnonymousIdentity is used when a request carries no credentials.
var AnonymousIdentity = Identity{UserID: "anonymous", UserName: "anonymous"}

func (m Identity) IsAnonymous() bool {
	return m.UserID == "" || m.UserID == AnonymousIdentity.UserID
}
