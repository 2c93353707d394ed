package token

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	body, ok := strings.CutPrefix(tok, Prefix)
	if !ok {
		t.Fatalf("token %q lacks prefix %q", tok, Prefix)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		t.Fatalf("token body is not base64 RawURL: %v", err)
	}
	if len(decoded) != DefaultLength {
		t.Errorf("decoded length = %d, want %d", len(decoded), DefaultLength)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatal(err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d iterations", i)
		}
		seen[tok] = true
	}
}

func TestHashAndVerify(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	hash, err := Hash(tok)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("unexpected hash format: %s", hash)
	}
	if err := ValidateHash(hash); err != nil {
		t.Errorf("ValidateHash() = %v", err)
	}

	if !Verify(tok, hash) {
		t.Error("Verify should accept the original token")
	}
	if Verify(tok+"x", hash) {
		t.Error("Verify should reject a different token")
	}

	other, err := Hash(tok)
	if err != nil {
		t.Fatal(err)
	}
	if other == hash {
		t.Error("hashes should be salted")
	}
}

func TestHash_Empty(t *testing.T) {
	if _, err := Hash(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestValidateHash_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=16384,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$!!!$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$",
		"x$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA",
	}

	for _, hash := range tests {
		t.Run(hash, func(t *testing.T) {
			if err := ValidateHash(hash); err == nil {
				t.Errorf("ValidateHash(%q) should fail", hash)
			}
			if Verify("anything", hash) {
				t.Errorf("Verify should reject malformed hash %q", hash)
			}
		})
	}
}
