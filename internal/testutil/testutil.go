package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/pepperhq/outlook-agent/storage"
)

// MockTime is a controllable time source for deterministic expiry tests.
// Safe for concurrent use.
type MockTime struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockTime creates a mock clock frozen at t.
func NewMockTime(t time.Time) *MockTime {
	return &MockTime{now: t}
}

// Now returns the current mock time.
func (m *MockTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock time forward by d.
func (m *MockTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock time to a specific instant.
func (m *MockTime) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// GenerateRandomString returns a random base64url string with n bytes of
// entropy. Panics on RNG failure, which only happens on a broken system.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateTestRecord creates a token record with random credentials and a
// one-hour lifetime.
func GenerateTestRecord() *storage.TokenRecord {
	return &storage.TokenRecord{
		AccessToken:  GenerateRandomString(32),
		RefreshToken: GenerateRandomString(32),
		ExpiresIn:    3600,
		Scope:        "User.Read Mail.ReadWrite Mail.Send Calendars.ReadWrite",
		TokenType:    "Bearer",
	}
}

// NewMockHTTPServer creates a test HTTP server with the given handler.
func NewMockHTTPServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(handler)
}
