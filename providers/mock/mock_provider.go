// Package mock provides a mock implementation of the Provider interface for
// testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/pepperhq/outlook-agent/providers"
)

// MockProvider is a mock implementation of the Provider interface. Each
// method delegates to a replaceable function field and counts invocations.
type MockProvider struct {
	// NameFunc is called when Name() is invoked
	NameFunc func() string

	// AuthorizationURLFunc is called when AuthorizationURL() is invoked
	AuthorizationURLFunc func(state, codeChallenge, codeChallengeMethod string) string

	// ExchangeCodeFunc is called when ExchangeCode() is invoked
	ExchangeCodeFunc func(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error)

	// RefreshTokenFunc is called when RefreshToken() is invoked
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// IdentityFunc is called when Identity() is invoked
	IdentityFunc func(token *oauth2.Token) (*providers.UserInfo, error)

	// CallCounts tracks how many times each method was called
	CallCounts map[string]int

	// mu protects CallCounts from concurrent access
	mu sync.Mutex
}

// NewMockProvider creates a new mock provider with default implementations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		CallCounts: make(map[string]int),
		NameFunc: func() string {
			return "mock"
		},
		AuthorizationURLFunc: func(state, codeChallenge, codeChallengeMethod string) string {
			return fmt.Sprintf("https://mock.example.com/authorize?state=%s&code_challenge=%s&code_challenge_method=%s",
				state, codeChallenge, codeChallengeMethod)
		},
		ExchangeCodeFunc: func(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
			return &oauth2.Token{
				AccessToken:  "mock-access-token",
				TokenType:    "Bearer",
				RefreshToken: "mock-refresh-token",
			}, nil
		},
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			return &oauth2.Token{
				AccessToken:  "new-mock-access-token",
				TokenType:    "Bearer",
				RefreshToken: "new-mock-refresh-token",
			}, nil
		},
		IdentityFunc: func(token *oauth2.Token) (*providers.UserInfo, error) {
			return &providers.UserInfo{
				ID:       "mock-user-123",
				Email:    "mock@example.com",
				Name:     "Mock User",
				TenantID: "mock-tenant",
			}, nil
		},
	}
}

// Compile-time interface check.
var _ providers.Provider = (*MockProvider)(nil)

// count records an invocation and returns the configured function.
// The lock is released before the function runs so user functions can call
// other mock methods without deadlocking.
func count[T any](m *MockProvider, method string, fn T) T {
	m.mu.Lock()
	m.CallCounts[method]++
	m.mu.Unlock()
	return fn
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	fn := count(m, "Name", m.NameFunc)
	if fn == nil {
		return "mock"
	}
	return fn()
}

// AuthorizationURL generates the URL to redirect users for authentication.
func (m *MockProvider) AuthorizationURL(state, codeChallenge, codeChallengeMethod string) string {
	fn := count(m, "AuthorizationURL", m.AuthorizationURLFunc)
	if fn == nil {
		return ""
	}
	return fn(state, codeChallenge, codeChallengeMethod)
}

// ExchangeCode exchanges an authorization code for tokens.
func (m *MockProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	fn := count(m, "ExchangeCode", m.ExchangeCodeFunc)
	if fn == nil {
		return nil, fmt.Errorf("ExchangeCodeFunc not configured")
	}
	return fn(ctx, code, codeVerifier)
}

// RefreshToken obtains a fresh token using a refresh token.
func (m *MockProvider) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	fn := count(m, "RefreshToken", m.RefreshTokenFunc)
	if fn == nil {
		return nil, fmt.Errorf("RefreshTokenFunc not configured")
	}
	return fn(ctx, refreshToken)
}

// Identity extracts the authenticated user's identity from a token response.
func (m *MockProvider) Identity(token *oauth2.Token) (*providers.UserInfo, error) {
	fn := count(m, "Identity", m.IdentityFunc)
	if fn == nil {
		return nil, fmt.Errorf("IdentityFunc not configured")
	}
	return fn(token)
}

// Calls returns how many times the named method was invoked.
func (m *MockProvider) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCounts[method]
}
