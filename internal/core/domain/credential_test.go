package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("unexpected hash format: %s", hash)
	}
	if !VerifyPassword("secret", hash) {
		t.Error("VerifyPassword should accept the original password")
	}
	if VerifyPassword("Secret", hash) {
		t.Error("VerifyPassword should reject a different password")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, _ := HashPassword("same")
	h2, _ := HashPassword("same")
	if h1 == h2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=16384,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$!!!$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$",
	}
	for _, h := range tests {
		if VerifyPassword("x", h) {
			t.Errorf("VerifyPassword(%q) = true, want false", h)
		}
	}
}

func TestNewCredential(t *testing.T) {
	c, err := NewCredential("alice", "pw")
	if err != nil {
		t.Fatalf("NewCredential() error = %v", err)
	}
	if c.Username != "alice" {
		t.Errorf("Username = %q", c.Username)
	}
	if !c.Verify("pw") {
		t.Error("Verify should accept the password")
	}
	if c.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestValidateCredentialInput(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid", "alice", "pw", false},
		{"empty username", "", "pw", true},
		{"empty password", "alice", "", true},
		{"long username", strings.Repeat("a", MaxUsernameLength+1), "pw", true},
		{"long password", "alice", strings.Repeat("p", MaxPasswordLength+1), true},
		{"slash", "a/b", "pw", true},
		{"newline", "a\nb", "pw", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentialInput(tt.username, tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrCredentialValidation) {
				t.Errorf("error = %v, want ErrCredentialValidation", err)
			}
		})
	}
}
