package security

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	key := DeriveKey("test-secret")
	if len(key) != 32 {
		t.Fatalf("DeriveKey() returned %d bytes, want 32", len(key))
	}

	// Deterministic for the same secret
	again := DeriveKey("test-secret")
	if string(key) != string(again) {
		t.Error("DeriveKey() is not deterministic for the same secret")
	}

	// Different secrets yield different keys
	other := DeriveKey("another-secret")
	if string(key) == string(other) {
		t.Error("DeriveKey() returned the same key for different secrets")
	}
}

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor(DeriveKey("test-secret"))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	plaintexts := []string{
		"",
		"short",
		`{"access_token":"eyJ0eXAi...","refresh_token":"0.AXEA...","expires_in":3600}`,
		strings.Repeat("long-payload-", 1000),
	}

	for _, plaintext := range plaintexts {
		ciphertext, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if ciphertext == plaintext && plaintext != "" {
			t.Error("Encrypt() returned plaintext unchanged")
		}

		got, err := enc.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip = %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptor_NonDeterministicCiphertext(t *testing.T) {
	enc, err := NewEncryptor(DeriveKey("test-secret"))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	c1, err := enc.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	c2, err := enc.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if c1 == c2 {
		t.Error("two encryptions of the same plaintext produced identical ciphertext (nonce reuse?)")
	}
}

func TestEncryptor_InvalidKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		if _, err := NewEncryptor(make([]byte, size)); err == nil {
			t.Errorf("NewEncryptor() with %d-byte key should return error", size)
		}
	}
}

func TestEncryptor_DecryptTampered(t *testing.T) {
	enc, err := NewEncryptor(DeriveKey("test-secret"))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	ciphertext, err := enc.Encrypt("sensitive token data")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		t.Fatalf("decode ciphertext: %v", err)
	}
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := enc.Decrypt(tampered); err == nil {
		t.Error("Decrypt() of tampered ciphertext should return error")
	}
}

func TestEncryptor_DecryptGarbage(t *testing.T) {
	enc, err := NewEncryptor(DeriveKey("test-secret"))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	if _, err := enc.Decrypt("not base64 at all!!!"); err == nil {
		t.Error("Decrypt() of invalid base64 should return error")
	}
	if _, err := enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("x"))); err == nil {
		t.Error("Decrypt() of too-short ciphertext should return error")
	}
}

func TestEncryptor_WrongKey(t *testing.T) {
	enc1, err := NewEncryptor(DeriveKey("secret-one"))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	enc2, err := NewEncryptor(DeriveKey("secret-two"))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	ciphertext, err := enc1.Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if _, err := enc2.Decrypt(ciphertext); err == nil {
		t.Error("Decrypt() with a different key should return error")
	}
}
