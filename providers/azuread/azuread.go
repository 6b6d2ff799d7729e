package azuread

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/pepperhq/outlook-agent/providers"
)

// DefaultScopes are the Microsoft Graph delegated scopes requested when the
// configuration does not specify any.
var DefaultScopes = []string{
	"User.Read",
	"Mail.ReadWrite",
	"Mail.Send",
	"Calendars.ReadWrite",
	"MailboxSettings.Read",
}

// Provider implements providers.Provider for Azure AD.
type Provider struct {
	config     *oauth2.Config
	tenantID   string
	httpClient *http.Client
}

// Config holds Azure AD OAuth configuration.
type Config struct {
	// ClientID is the application (client) ID from the app registration.
	ClientID string

	// TenantID is the directory (tenant) ID, or "common"/"organizations"
	// for multi-tenant applications.
	TenantID string

	// ClientSecret is the client secret. Optional: public clients rely on
	// PKCE alone.
	ClientSecret string

	// RedirectURL is where Azure AD redirects after authentication.
	RedirectURL string

	// Scopes are the delegated Graph scopes to request.
	// Defaults to DefaultScopes.
	Scopes []string

	// HTTPClient is an optional custom HTTP client for token requests.
	HTTPClient *http.Client
}

// NewProvider creates a new Azure AD provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.TenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("redirect URL is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     microsoft.AzureADEndpoint(cfg.TenantID),
		},
		tenantID:   cfg.TenantID,
		httpClient: httpClient,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "azuread"
}

// AuthorizationURL generates the Azure AD authorization URL with PKCE
// parameters attached.
func (p *Provider) AuthorizationURL(state, codeChallenge, codeChallengeMethod string) string {
	var opts []oauth2.AuthCodeOption
	if codeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", codeChallengeMethod),
		)
	}
	return p.config.AuthCodeURL(state, opts...)
}

// ExchangeCode exchanges an authorization code for tokens, presenting the
// PKCE code verifier.
func (p *Provider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// RefreshToken obtains a fresh access token using a refresh token.
func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	src := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return token, nil
}

// idTokenClaims are the Azure AD ID token claims this backend consumes.
type idTokenClaims struct {
	ObjectID          string `json:"oid"`
	TenantID          string `json:"tid"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	jwt.RegisteredClaims
}

// Identity extracts the user's identity from the ID token accompanying the
// token response. The ID token arrives directly from the tenant's token
// endpoint over TLS in the same response as the access token, so its
// signature is not re-verified here.
func (p *Provider) Identity(token *oauth2.Token) (*providers.UserInfo, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("token response contains no id_token")
	}

	var claims idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token: %w", err)
	}

	if claims.ObjectID == "" {
		return nil, fmt.Errorf("id_token contains no oid claim")
	}

	return &providers.UserInfo{
		ID:       claims.ObjectID,
		Email:    claims.PreferredUsername,
		Name:     claims.Name,
		TenantID: claims.TenantID,
	}, nil
}
