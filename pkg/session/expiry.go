package session

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// tokenExpired reports whether token is a JWT whose exp claim lies before
// now. The signature is not checked. Tokens that don't parse as JWTs, or
// carry no exp, never expire locally.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), true)
}
