package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider is an OAuth 2.0 identity provider speaking the
// authorization-code-with-PKCE flow.
type Provider interface {
	// Name returns the provider name (e.g. "azuread").
	Name() string

	// AuthorizationURL builds the URL to redirect users to for
	// authentication. codeChallenge and codeChallengeMethod carry the PKCE
	// parameters; state is the CSRF token the provider echoes back.
	AuthorizationURL(state, codeChallenge, codeChallengeMethod string) string

	// ExchangeCode exchanges an authorization code for tokens, presenting
	// the PKCE code verifier.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error)

	// RefreshToken obtains a fresh token using a refresh token.
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// Identity extracts the authenticated user's identity from a token
	// response (typically from the accompanying ID token).
	Identity(token *oauth2.Token) (*UserInfo, error)
}

// UserInfo identifies the authenticated user.
type UserInfo struct {
	// ID is the provider's stable unique identifier for the user
	// (the `oid` claim for Azure AD).
	ID string

	// Email is the user's sign-in address, if the provider supplied one.
	Email string

	// Name is the user's display name.
	Name string

	// TenantID is the directory tenant the user belongs to.
	TenantID string
}
