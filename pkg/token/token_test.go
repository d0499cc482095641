package token

import (
	"encoding/base64"
	"testing"
)

func TestGenerate(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("Generate() returned invalid base64: %v", err)
	}
	if len(decoded) != DefaultLength {
		t.Errorf("Generate() decoded length = %d, want %d", len(decoded), DefaultLength)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[tok] {
			t.Fatalf("Generate() produced duplicate token: %s", tok)
		}
		seen[tok] = true
	}
}

func TestGenerateWithLength(t *testing.T) {
	for _, n := range []int{1, 16, 32, 64} {
		tok, err := GenerateWithLength(n)
		if err != nil {
			t.Fatalf("GenerateWithLength(%d) error = %v", n, err)
		}
		decoded, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("GenerateWithLength(%d) invalid base64: %v", n, err)
		}
		if len(decoded) != n {
			t.Errorf("GenerateWithLength(%d) decoded length = %d", n, len(decoded))
		}
	}
}

func TestGenerateBytes_InvalidLength(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := GenerateBytes(n); err == nil {
			t.Errorf("GenerateBytes(%d) should fail", n)
		}
	}
}
