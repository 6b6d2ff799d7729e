package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// CodeVerifierLength is the length of generated PKCE code verifiers.
	// RFC 7636 permits 43-128 characters; we always generate the maximum.
	CodeVerifierLength = 128

	// PKCEMethodS256 is the SHA-256 code challenge method (the only method
	// this backend uses; "plain" defeats the point of PKCE).
	PKCEMethodS256 = "S256"
)

// codeVerifierCharset is the unreserved character set allowed by RFC 7636.
const codeVerifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// GenerateCodeVerifier generates a cryptographically random PKCE code
// verifier of CodeVerifierLength characters.
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, CodeVerifierLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	for i := range b {
		b[i] = codeVerifierCharset[int(b[i])%len(codeVerifierCharset)]
	}
	return string(b), nil
}

// CodeChallengeS256 computes the S256 code challenge for a verifier:
// the base64url-encoded (unpadded) SHA-256 hash of the verifier.
func CodeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GeneratePKCEPair generates a code verifier and its S256 challenge.
func GeneratePKCEPair() (verifier, challenge string, err error) {
	verifier, err = GenerateCodeVerifier()
	if err != nil {
		return "", "", err
	}
	return verifier, CodeChallengeS256(verifier), nil
}

// GenerateState generates a random OAuth state parameter for CSRF
// protection: 32 bytes of entropy, base64url-encoded without padding.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
