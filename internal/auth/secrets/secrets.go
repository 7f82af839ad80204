package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "dossier/pkg/domain-errors"
)

// ErrMismatch is returned when a password does not match the stored credential.
var ErrMismatch = errors.New("password mismatch")

// Generate creates a random password for staff-provisioned accounts.
func Generate() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the provided password.
func Hash(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// IsHash reports whether stored looks like a bcrypt hash.
func IsHash(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// Verify checks password against a bcrypt hash.
func Verify(password, hash string) error {
	if !IsHash(hash) {
		return ErrMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}

// VerifyLegacy also accepts stored credentials that predate hashing, in
// constant time. Only applicant accounts imported from the old system have them.
func VerifyLegacy(password, stored string) error {
	if IsHash(stored) {
		return Verify(password, stored)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(stored)), []byte(password)) != 1 {
		return ErrMismatch
	}
	return nil
}
