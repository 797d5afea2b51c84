package utils

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var ErrWeakPassword = errors.New("password does not meet requirements")

// PasswordManager hashes and checks account passwords.
type PasswordManager struct {
	minLength     int
	cost          int
	requireLetter bool
	requireNumber bool
}

// NewPasswordManager returns a manager with the default policy: at least
// eight characters mixing letters and digits.
func NewPasswordManager() *PasswordManager {
	return &PasswordManager{
		minLength:     8,
		cost:          bcrypt.DefaultCost,
		requireLetter: true,
		requireNumber: true,
	}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (pm *PasswordManager) WithCost(cost int) *PasswordManager {
	pm.cost = cost
	return pm
}

// HashPassword validates the password and hashes it with bcrypt.
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	if err := pm.ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword returns nil when password matches the stored hash.
func (pm *PasswordManager) ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (pm *PasswordManager) ValidatePassword(password string) error {
	if len(password) < pm.minLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrWeakPassword, pm.minLength)
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}
	if pm.requireLetter && !hasLetter {
		return fmt.Errorf("%w: must contain at least one letter", ErrWeakPassword)
	}
	if pm.requireNumber && !hasNumber {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}
	return nil
}
