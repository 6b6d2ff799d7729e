package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// keySize is the AES-256 key length in bytes.
	keySize = 32

	// keyDerivationIterations is the PBKDF2 iteration count for DeriveKey.
	// The secret is a deployment-configured value, not a user password, so a
	// moderate count is sufficient; derivation happens once per process.
	keyDerivationIterations = 4096
)

// keyDerivationSalt is a fixed application salt for DeriveKey. The secret is
// process-wide, so a per-key random salt would have nothing to bind to.
var keyDerivationSalt = []byte("outlook-agent/credential-store/v1")

// DeriveKey derives the 32-byte AES-256 storage key from a configured secret
// using PBKDF2-SHA256. The derivation is one-way: the secret cannot be
// recovered from the key, and the same secret always yields the same key.
func DeriveKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), keyDerivationSalt, keyDerivationIterations, keySize, sha256.New)
}

// Encryptor encrypts credential records at rest using AES-256-GCM.
// Unlike transport encryption this guards against the process memory or a
// heap dump leaking bearer tokens in the clear.
type Encryptor struct {
	key []byte
}

// NewEncryptor creates an encryptor from a 32-byte AES-256 key.
// Use DeriveKey to obtain a key from a configured secret.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes for AES-256, got %d", keySize, len(key))
	}
	return &Encryptor{key: key}, nil
}

// Encrypt encrypts plaintext and returns base64-encoded ciphertext.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal with the nonce slice as destination produces the storage
	// format: [nonce][ciphertext]
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64-encoded ciphertext produced by Encrypt.
// Any tampering or truncation of the ciphertext fails GCM authentication
// and returns an error; callers treat that as a corrupt record.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
