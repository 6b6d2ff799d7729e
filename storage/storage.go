package storage

import (
	"context"
	"errors"
)

// Sentinel errors returned by CredentialStore implementations.
var (
	// ErrTokenNotFound indicates no usable token record exists for a user.
	// A corrupt record that was evicted surfaces as this error too; callers
	// must treat both identically ("user never authenticated").
	ErrTokenNotFound = errors.New("no tokens found for user")

	// ErrVerifierNotFound indicates no code verifier exists for a state,
	// either because the state is unknown or the verifier was already
	// consumed by an earlier callback.
	ErrVerifierNotFound = errors.New("no code verifier found for state")
)

// CredentialStore persists OAuth token records and in-flight PKCE code
// verifiers. Keys (user ID, OAuth state) are opaque strings supplied by the
// caller or the identity provider; the store does not interpret them.
//
// All methods accept context.Context for tracing. The in-memory
// implementation never blocks on I/O, but durable backends may.
type CredentialStore interface {
	// SaveCodeVerifier stores a PKCE code verifier for an OAuth state,
	// overwriting any previous entry for the same state.
	SaveCodeVerifier(ctx context.Context, state, verifier string) error

	// ConsumeCodeVerifier atomically retrieves and removes the verifier for
	// a state. Returns ErrVerifierNotFound if the state is unknown. At most
	// one caller can ever obtain the verifier for a given state.
	ConsumeCodeVerifier(ctx context.Context, state string) (string, error)

	// SaveTokens stamps the record with the current time, encrypts it, and
	// stores it keyed by user ID, overwriting any prior record.
	SaveTokens(ctx context.Context, userID string, rec *TokenRecord) error

	// GetTokens decrypts and returns the record for a user. Returns
	// ErrTokenNotFound if absent. A record that fails decryption or
	// deserialization is evicted and reported as ErrTokenNotFound; the
	// corruption never propagates.
	GetTokens(ctx context.Context, userID string) (*TokenRecord, error)

	// DeleteTokens removes the record for a user and reports whether one
	// existed.
	DeleteTokens(ctx context.Context, userID string) (bool, error)

	// IsTokenExpired reports whether the user's access token is expired.
	// Absent (or corrupt) records count as expired.
	IsTokenExpired(ctx context.Context, userID string) bool
}
