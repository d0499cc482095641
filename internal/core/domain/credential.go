package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
)

// Credential constraints.
const (
	MaxUsernameLength = 64
	MaxPasswordLength = 256
)

// argon2id parameters. Memory is in KiB.
const (
	argon2Time    = 2
	argon2Memory  = 16 * 1024
	argon2Threads = 2
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// Credential is a stored username with its password hash.
type Credential struct {
	Username string `json:"username"`

	// PasswordHash is an argon2id PHC string:
	// $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
	PasswordHash string `json:"password_hash"`

	CreatedAt time.Time `json:"created_at"`
}

// NewCredential validates the pair and hashes the password.
func NewCredential(username, password string) (*Credential, error) {
	if err := ValidateCredentialInput(username, password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Credential{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateCredentialInput checks username and password bounds.
func ValidateCredentialInput(username, password string) error {
	switch {
	case username == "":
		return ErrCredentialValidation.WithDetails("username is required")
	case password == "":
		return ErrCredentialValidation.WithDetails("password is required")
	case len(username) > MaxUsernameLength:
		return ErrCredentialValidation.WithDetails("username too long")
	case len(password) > MaxPasswordLength:
		return ErrCredentialValidation.WithDetails("password too long")
	case strings.ContainsAny(username, "/\r\n"):
		return ErrCredentialValidation.WithDetails("username contains invalid characters")
	}
	return nil
}

// Verify reports whether password matches the stored hash.
func (c *Credential) Verify(password string) bool {
	return VerifyPassword(password, c.PasswordHash)
}

// HashPassword returns the argon2id PHC string for password.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword checks password against an argon2id PHC string.
// Malformed hashes never match.
func VerifyPassword(password, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
