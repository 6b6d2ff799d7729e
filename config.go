package outlook

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config holds the backend configuration.
// Structured using composition for better organization and maintainability.
type Config struct {
	// AzureAD holds the app registration credentials and settings.
	AzureAD AzureADConfig

	// Security holds credential protection settings.
	Security SecurityConfig

	// RateLimit holds rate limiting configuration.
	RateLimit RateLimitConfig

	// Logger for structured logging (optional, uses default if not provided).
	Logger *slog.Logger

	// HTTPClient is a custom HTTP client for token endpoint requests.
	// If not provided, uses the default HTTP client.
	HTTPClient *http.Client
}

// AzureADConfig holds the Azure AD app registration settings.
type AzureADConfig struct {
	// ClientID is the application (client) ID (required).
	ClientID string

	// TenantID is the directory (tenant) ID, or "common" for
	// multi-tenant apps (required).
	TenantID string

	// ClientSecret is optional; public clients rely on PKCE alone.
	ClientSecret string

	// RedirectURL is where Azure AD redirects after authentication
	// (required).
	RedirectURL string

	// Scopes are the Graph permission scopes to request.
	// Defaults to the mail and calendar scopes this backend uses.
	Scopes []string
}

// SecurityConfig holds credential protection settings.
type SecurityConfig struct {
	// StorageSecret is the secret the token encryption key is derived
	// from (required). Stored tokens are AES-256-GCM encrypted; the
	// secret itself is never kept, only a one-way derivation of it.
	StorageSecret string
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Rate is requests per second allowed per IP. Zero disables limiting.
	Rate int

	// Burst is the maximum burst size allowed per IP.
	Burst int

	// CleanupInterval is how often to cleanup inactive rate limiters.
	CleanupInterval time.Duration

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// Only enable behind a trusted reverse proxy.
	TrustProxy bool
}

// Validate checks that required configuration is present. It returns every
// missing field at once so operators can fix them in one pass.
func (c *Config) Validate() error {
	missing := c.MissingFields()
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

// MissingFields returns the names of required fields that are unset.
// The health endpoint reports these to make misconfiguration visible.
func (c *Config) MissingFields() []string {
	var missing []string
	if c.AzureAD.ClientID == "" {
		missing = append(missing, "AzureAD.ClientID")
	}
	if c.AzureAD.TenantID == "" {
		missing = append(missing, "AzureAD.TenantID")
	}
	if c.AzureAD.RedirectURL == "" {
		missing = append(missing, "AzureAD.RedirectURL")
	}
	if c.Security.StorageSecret == "" {
		missing = append(missing, "Security.StorageSecret")
	}
	return missing
}
