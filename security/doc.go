// Package security provides the security primitives used by the outlook-agent
// backend: encryption of credentials at rest, PKCE verifier and challenge
// generation, per-client rate limiting, request ID propagation, and
// hardened HTTP response headers.
//
// # Credential encryption
//
// Tokens are encrypted with AES-256-GCM before they are placed in storage.
// The 32-byte key is derived once per process from a configured secret via
// DeriveKey (PBKDF2-SHA256), so the plaintext secret never acts as the key
// directly:
//
//	key := security.DeriveKey(cfg.StorageSecret)
//	enc, err := security.NewEncryptor(key)
//
// # Rate limiting
//
// The RateLimiter provides per-identifier token-bucket limiting with LRU
// eviction to bound memory under distributed abuse. Entries idle for more
// than 30 minutes are removed by a background cleanup loop; call Stop when
// shutting down.
package security
