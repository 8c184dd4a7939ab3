package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned for tokens without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry claim")

// DecodeExpiry reads the exp claim from the token payload. The signature is
// not verified; the token is only inspected to avoid a pointless round trip.
func DecodeExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// CleanToken extracts the token from a Set-Cookie style value
// ("name=value; Path=/; ...") as some sign-in responses return it.
func CleanToken(raw string) string {
	if !strings.Contains(raw, ";") {
		return raw
	}
	cookiePart := strings.SplitN(raw, ";", 2)[0]
	if i := strings.Index(cookiePart, "="); i != -1 {
		return cookiePart[i+1:]
	}
	return raw
}
