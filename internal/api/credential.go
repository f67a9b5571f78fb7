package api

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the opaque bearer token issued at login. It is threaded
// explicitly through every authenticated call rather than read from global
// state.
type Credential string

// Empty reports whether no credential is present.
func (c Credential) Empty() bool {
	return strings.TrimSpace(string(c)) == ""
}

// Expired reports whether the token carries an exp claim in the past. The
// token is decoded without signature verification; this is purely an
// advisory local check so an obviously stale session can prompt for login
// before a request round-trips into a 401. Opaque non-JWT tokens never
// report expired.
func (c Credential) Expired(now time.Time) bool {
	if c.Empty() {
		return false
	}
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(string(c), jwt.MapClaims{})
	if err != nil {
		return false
	}
	expiry, err := token.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}
	return expiry.Before(now)
}
