package materna

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiresAt parses token as a JWT without verifying its signature and
// returns the exp claim. ok is false for opaque (non-JWT) tokens and for
// JWTs without an exp claim. The client treats the token as opaque for
// authentication purposes; the claim is only a local staleness hint.
func TokenExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func tokenExpired(token string) bool {
	exp, ok := TokenExpiresAt(token)
	return ok && time.Now().After(exp)
}

// TokenExpiry returns the exp claim of the current session token. ok is
// false when unauthenticated or when the token carries no readable expiry.
func (c *Client) TokenExpiry() (time.Time, bool) {
	token := c.Token()
	if token == "" {
		return time.Time{}, false
	}
	return TokenExpiresAt(token)
}
