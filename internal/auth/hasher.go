package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// SaltLength is the length of the generated per-producer salt.
	SaltLength = 20
	// MaxPasswordLength is the longest password bcrypt can take once the salt is appended.
	MaxPasswordLength = 72 - SaltLength
)

// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordLength bytes.
var ErrPasswordTooLong = errors.New("password is too long")

// Hasher hashes passwords with bcrypt over password+salt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given bcrypt cost; zero means bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a new salt and the bcrypt hash of password+salt.
func (h *Hasher) Hash(password string) (hash, salt string, err error) {
	if len(password) > MaxPasswordLength {
		return "", "", ErrPasswordTooLong
	}
	salt, err = newSalt()
	if err != nil {
		return "", "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password+salt), h.cost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), salt, nil
}

// Compare reports whether password matches hash under salt. An empty hash never matches.
func (h *Hasher) Compare(hash, salt, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+salt)) == nil
}

func newSalt() (string, error) {
	buf := make([]byte, SaltLength*3/4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
