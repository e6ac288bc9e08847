package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is used when the configured cost is out of range.
const DefaultBcryptCost = 10

// HashPassword derives a bcrypt hash from a plaintext password.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a stored bcrypt hash with a candidate password.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
