package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when the input is not a structurally valid
// JWT and no claims can be read from it.
var ErrMalformedToken = errors.New("malformed access token")

// Claims holds the identity fields peeked from an unverified access token.
// Absent claims are zero values.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

var parser = jwtlib.NewParser()

// Peek decodes the claims segment of an access token without checking its
// signature or lifetime. Issuers disagree on claim names, so the user id is
// read from sub, userId, or uid (in that order) and the role from role or
// userRole.
func Peek(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformedToken
	}

	raw := jwtlib.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims := &Claims{
		UserID: firstString(raw, "sub", "userId", "uid"),
		Role:   firstString(raw, "role", "userRole"),
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func firstString(claims jwtlib.MapClaims, keys ...string) string {
	for _, key := range keys {
		if value, ok := claims[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
