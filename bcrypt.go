package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password and opaque-token hashing.
const BcryptCost = 12

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// HashOpaqueToken hashes a long-lived secret (refresh token, verification
// token) for storage. The raw value is never persisted.
func HashOpaqueToken(token string) (string, error) {
	if token == "" {
		return "", ErrNoEmptyString
	}

	// bcrypt only reads the first 72 bytes; hash a fixed-width digest of
	// the token so longer values keep their full entropy.
	h, err := bcrypt.GenerateFromPassword(tokenDigest(token), BcryptCost)
	return string(h), err
}

// CompareOpaqueToken validates a raw token against its stored hash.
func CompareOpaqueToken(token, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), tokenDigest(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// NewOpaqueToken returns a 256-bit random token, hex encoded. Used for
// session tokens and verification tokens.
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// tokenDigest reduces a token of any length to a fixed 64-byte value that
// fits inside bcrypt's 72-byte input limit.
func tokenDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
