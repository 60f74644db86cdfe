package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt extracts the exp claim from a token without verifying the
// signature; verification happens server-side, the client only needs the
// expiry for a friendlier error than a 401.
func ExpiresAt(token string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired reports whether the token's exp claim has passed. Tokens without
// an exp claim are treated as non-expiring.
func IsExpired(token string) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return false
	}
	return time.Now().After(exp)
}
