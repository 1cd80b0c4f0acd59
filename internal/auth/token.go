// Package auth translates the opaque per-launch identifiers supplied by the
// embedding host into a durable internal identity: client, technician, role
// and permission set. It also verifies the optional signed assertion the
// host can attach to a launch.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a launch token is present but fails
// verification (bad signature, expired, malformed). A bad token is fatal
// for the request; there is no fallback to identifier-only resolution.
var ErrInvalidToken = errors.New("invalid launch token")

// VerifyLaunchToken validates the signed assertion accompanying a launch
// request. The token is an HS256 JWT signed with a secret shared with the
// embedding host. An empty raw token is the caller's signal that the host
// sent none; callers skip verification in that case rather than passing
// empty input here.
func VerifyLaunchToken(raw, secret string) error {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}
