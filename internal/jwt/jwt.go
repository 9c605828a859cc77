package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// ErrNoExpiration is returned for tokens which do not carry an exp claim.
var ErrNoExpiration = errors.New("jwt: token has no expiration claim")

// Expiry returns the expiration time (UTC) encoded in the exp claim of an access token.
// The signature is not verified, the token is only inspected.
func Expiry(accessToken string) (time.Time, error) {
	var claims jwt.RegisteredClaims

	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, errors.Wrap(err, "jwt: access token is not a parsable JWT")
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiration
	}

	return claims.ExpiresAt.Time.UTC(), nil
}
