package crypto

import (
	"strings"
	"testing"
)

func TestTokenCipherRoundTrip(t *testing.T) {
	tc, err := NewTokenCipher("master-secret")
	if err != nil {
		t.Fatalf("NewTokenCipher() error = %v", err)
	}

	const plaintext = "rt-abc123"
	blob, err := tc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !strings.HasPrefix(blob, "enc1:") {
		t.Errorf("blob %q missing encryption prefix", blob)
	}
	if strings.Contains(blob, plaintext) {
		t.Error("blob contains the plaintext")
	}

	got, err := tc.Decrypt(blob)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != plaintext {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}

func TestTokenCipherSaltsPerValue(t *testing.T) {
	tc, err := NewTokenCipher("master-secret")
	if err != nil {
		t.Fatal(err)
	}

	a, err := tc.Encrypt("rt-abc123")
	if err != nil {
		t.Fatal(err)
	}
	b, err := tc.Encrypt("rt-abc123")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same value are identical")
	}
}

func TestTokenCipherPassesThroughPlaintext(t *testing.T) {
	tc, err := NewTokenCipher("master-secret")
	if err != nil {
		t.Fatal(err)
	}

	// Tokens stored before encryption was enabled have no prefix.
	got, err := tc.Decrypt("rt-legacy")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != "rt-legacy" {
		t.Errorf("Decrypt() = %q, want unprefixed value unchanged", got)
	}
}

func TestTokenCipherWrongSecret(t *testing.T) {
	tc, err := NewTokenCipher("master-secret")
	if err != nil {
		t.Fatal(err)
	}
	blob, err := tc.Encrypt("rt-abc123")
	if err != nil {
		t.Fatal(err)
	}

	other, err := NewTokenCipher("different-secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Decrypt(blob); err == nil {
		t.Error("Decrypt() with the wrong secret succeeded")
	}
}

func TestNewTokenCipherRejectsEmptySecret(t *testing.T) {
	if _, err := NewTokenCipher(""); err == nil {
		t.Error("NewTokenCipher(\"\") error = nil, want rejection")
	}
}
