package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength applies to staff credentials (admin, monitor, cocina);
// attendees never hold a password.
const minPasswordLength = 6

var ErrPasswordTooShort = errors.New("password must have at least 6 characters")

// HashPassword bcrypt-hashes a staff password at the default cost.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a login attempt against the stored hash.
func CheckPassword(password, hashedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
