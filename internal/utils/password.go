package utils // utils provides helper functions shared across handlers

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password using bcrypt with the given
// cost. The cost comes from configuration so environments can trade CPU
// for hardness.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether the plaintext matches the stored bcrypt
// hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
