// Package auth resolves an optional bearer token to a user id. The real
// credential store lives in another service; downloads never block on it.
package auth

import "strings"

// Authenticator maps an Authorization header value to a user id. ok=false
// means anonymous, which is always allowed.
type Authenticator interface {
	Authenticate(authHeader string) (userID string, ok bool)
}

// Anonymous accepts every request without resolving an identity.
type Anonymous struct{}

func (Anonymous) Authenticate(string) (string, bool) { return "", false }

// TokenFunc adapts a token-lookup function to the Authenticator interface,
// stripping the Bearer prefix first.
type TokenFunc func(token string) (string, bool)

func (f TokenFunc) Authenticate(authHeader string) (string, bool) {
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return f(token)
}
