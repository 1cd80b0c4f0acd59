package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "launch",
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	})
	raw, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal("sign token:", err)
	}
	return raw
}

func TestVerifyLaunchToken(t *testing.T) {
	raw := signedToken(t, "portal-secret", time.Now().Add(time.Minute))
	if err := VerifyLaunchToken(raw, "portal-secret"); err != nil {
		t.Fatal("valid token rejected:", err)
	}
}

func TestVerifyLaunchTokenWrongSecret(t *testing.T) {
	raw := signedToken(t, "portal-secret", time.Now().Add(time.Minute))
	if err := VerifyLaunchToken(raw, "other-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("token signed with the wrong secret must be rejected, got", err)
	}
}

func TestVerifyLaunchTokenExpired(t *testing.T) {
	raw := signedToken(t, "portal-secret", time.Now().Add(-time.Minute))
	if err := VerifyLaunchToken(raw, "portal-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("expired token must be rejected, got", err)
	}
}

func TestVerifyLaunchTokenMalformed(t *testing.T) {
	for _, raw := range []string{"garbage", "a.b.c", ""} {
		if err := VerifyLaunchToken(raw, "portal-secret"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("malformed token %q must be rejected, got %v", raw, err)
		}
	}
}

// The host may sign with any HMAC variant but nothing else; an unsigned
// token must never pass.
func TestVerifyLaunchTokenNoneAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "launch"})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal("sign token:", err)
	}
	if err := VerifyLaunchToken(raw, "portal-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("alg=none token must be rejected, got", err)
	}
}
