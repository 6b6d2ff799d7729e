package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pepperhq/outlook-agent/instrumentation"
	"github.com/pepperhq/outlook-agent/internal/util"
	"github.com/pepperhq/outlook-agent/security"
	"github.com/pepperhq/outlook-agent/storage"
)

// userIDLogLength is the number of characters of a user ID included in logs.
const userIDLogLength = 8

// Store is an encrypted in-memory implementation of storage.CredentialStore.
//
// Token records are serialized to JSON and encrypted with AES-256-GCM before
// entering the map, so a process inspection or heap dump never exposes
// plaintext bearer tokens. Code verifiers are held in the clear: they are
// worthless without the matching authorization code and live only for the
// seconds between login redirect and callback.
//
// Entries are keyed by independent identifiers, and every operation touches
// a single key under the store mutex. Two concurrent refreshes for the same
// user are not serialized beyond that: the last writer wins.
type Store struct {
	mu        sync.Mutex
	tokens    map[string]string // user ID -> base64 ciphertext
	verifiers map[string]string // OAuth state -> PKCE code verifier

	encryptor *security.Encryptor
	logger    *slog.Logger

	// now is replaceable for deterministic expiry tests.
	now func() time.Time

	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer

	// Atomic counters feed observable gauges without taking the mutex.
	tokensCountAtomic    atomic.Int64
	verifiersCountAtomic atomic.Int64
}

// Compile-time interface check.
var _ storage.CredentialStore = (*Store)(nil)

// New creates an encrypted in-memory credential store.
// The encryptor is mandatory: this store never holds plaintext tokens.
func New(enc *security.Encryptor) (*Store, error) {
	if enc == nil {
		return nil, fmt.Errorf("encryptor is required")
	}
	return &Store{
		tokens:    make(map[string]string),
		verifiers: make(map[string]string),
		encryptor: enc,
		logger:    slog.Default(),
		now:       time.Now,
	}, nil
}

// SetLogger sets a custom logger.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// SetTimeFunc replaces the store's clock. Intended for tests.
func (s *Store) SetTimeFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

// SetInstrumentation enables OpenTelemetry tracing and storage size gauges.
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.mu.Lock()
	s.instrumentation = inst
	if inst != nil {
		s.tracer = inst.Tracer("storage")
	}
	s.tokensCountAtomic.Store(int64(len(s.tokens)))
	s.verifiersCountAtomic.Store(int64(len(s.verifiers)))
	s.mu.Unlock()

	if inst != nil {
		if err := inst.RegisterStorageSizeCallbacks(
			func() int64 { return s.tokensCountAtomic.Load() },
			func() int64 { return s.verifiersCountAtomic.Load() },
		); err != nil {
			s.logger.Warn("Failed to register storage size callbacks", "error", err)
		}
	}
}

// startSpan starts a tracing span if instrumentation is configured.
func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, nil
	}
	return s.tracer.Start(ctx, name)
}

func endSpan(span trace.Span) {
	if span != nil {
		span.End()
	}
}

// SaveCodeVerifier stores a PKCE code verifier keyed by OAuth state.
// Abandoned flows leave their entry behind; that leak is bounded by the
// abandonment rate and accepted for a process-lifetime store.
func (s *Store) SaveCodeVerifier(ctx context.Context, state, verifier string) error {
	_, span := s.startSpan(ctx, "store.SaveCodeVerifier")
	defer endSpan(span)

	if state == "" {
		return fmt.Errorf("state cannot be empty")
	}
	if verifier == "" {
		return fmt.Errorf("verifier cannot be empty")
	}

	s.mu.Lock()
	s.verifiers[state] = verifier
	s.verifiersCountAtomic.Store(int64(len(s.verifiers)))
	s.mu.Unlock()

	s.logger.Debug("Stored code verifier", "state", util.SafeTruncate(state, userIDLogLength))
	return nil
}

// ConsumeCodeVerifier atomically retrieves and removes the verifier for a
// state. The lookup and delete happen under the write lock, so a replayed
// callback for the same state loses the race and gets ErrVerifierNotFound.
func (s *Store) ConsumeCodeVerifier(ctx context.Context, state string) (string, error) {
	_, span := s.startSpan(ctx, "store.ConsumeCodeVerifier")
	defer endSpan(span)

	s.mu.Lock()
	verifier, ok := s.verifiers[state]
	if ok {
		delete(s.verifiers, state)
		s.verifiersCountAtomic.Store(int64(len(s.verifiers)))
	}
	s.mu.Unlock()

	if !ok {
		if span != nil {
			span.SetAttributes(attribute.Bool("storage.found", false))
		}
		return "", storage.ErrVerifierNotFound
	}

	s.logger.Debug("Consumed code verifier", "state", util.SafeTruncate(state, userIDLogLength))
	return verifier, nil
}

// SaveTokens stamps, serializes, encrypts, and stores a token record,
// overwriting any prior record for the user.
func (s *Store) SaveTokens(ctx context.Context, userID string, rec *storage.TokenRecord) error {
	_, span := s.startSpan(ctx, "store.SaveTokens")
	defer endSpan(span)

	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if rec == nil {
		return fmt.Errorf("token record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamped := *rec
	stamped.StoredAt = s.now().UTC()

	plaintext, err := json.Marshal(&stamped)
	if err != nil {
		return fmt.Errorf("failed to serialize token record: %w", err)
	}

	ciphertext, err := s.encryptor.Encrypt(string(plaintext))
	if err != nil {
		return fmt.Errorf("failed to encrypt token record: %w", err)
	}

	s.tokens[userID] = ciphertext
	s.tokensCountAtomic.Store(int64(len(s.tokens)))

	s.logger.Info("Stored tokens",
		"user_id", util.SafeTruncate(userID, userIDLogLength),
		"expires_in", stamped.ExpiresIn,
		"has_refresh_token", stamped.HasRefreshToken())
	return nil
}

// GetTokens decrypts and returns the record for a user. A record that fails
// decryption or deserialization is evicted so subsequent calls see a clean
// miss instead of repeated corruption errors.
func (s *Store) GetTokens(ctx context.Context, userID string) (*storage.TokenRecord, error) {
	_, span := s.startSpan(ctx, "store.GetTokens")
	defer endSpan(span)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTokensLocked(userID)
}

// getTokensLocked is GetTokens without locking. Caller holds the mutex.
func (s *Store) getTokensLocked(userID string) (*storage.TokenRecord, error) {
	ciphertext, ok := s.tokens[userID]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}

	plaintext, err := s.encryptor.Decrypt(ciphertext)
	if err != nil {
		s.evictCorruptLocked(userID, err)
		return nil, storage.ErrTokenNotFound
	}

	var rec storage.TokenRecord
	if err := json.Unmarshal([]byte(plaintext), &rec); err != nil {
		s.evictCorruptLocked(userID, err)
		return nil, storage.ErrTokenNotFound
	}

	return &rec, nil
}

// evictCorruptLocked removes a record that failed decryption or decoding.
// Corruption self-heals by eviction and is never surfaced to callers.
func (s *Store) evictCorruptLocked(userID string, cause error) {
	delete(s.tokens, userID)
	s.tokensCountAtomic.Store(int64(len(s.tokens)))
	s.logger.Warn("Evicted corrupt token record",
		"user_id", util.SafeTruncate(userID, userIDLogLength),
		"error", cause)
}

// DeleteTokens removes the record for a user and reports whether one existed.
func (s *Store) DeleteTokens(ctx context.Context, userID string) (bool, error) {
	_, span := s.startSpan(ctx, "store.DeleteTokens")
	defer endSpan(span)

	s.mu.Lock()
	_, existed := s.tokens[userID]
	if existed {
		delete(s.tokens, userID)
		s.tokensCountAtomic.Store(int64(len(s.tokens)))
	}
	s.mu.Unlock()

	if existed {
		s.logger.Info("Deleted tokens", "user_id", util.SafeTruncate(userID, userIDLogLength))
	}
	return existed, nil
}

// IsTokenExpired reports whether the user's access token is expired.
// Absent and corrupt records count as expired; callers treat both the same
// as "not usable".
func (s *Store) IsTokenExpired(ctx context.Context, userID string) bool {
	_, span := s.startSpan(ctx, "store.IsTokenExpired")
	defer endSpan(span)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.getTokensLocked(userID)
	if err != nil {
		return true
	}
	return rec.ExpiredAt(s.now().UTC())
}
