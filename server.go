package outlook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pepperhq/outlook-agent/graph"
	"github.com/pepperhq/outlook-agent/instrumentation"
	"github.com/pepperhq/outlook-agent/providers"
	"github.com/pepperhq/outlook-agent/providers/azuread"
	"github.com/pepperhq/outlook-agent/security"
	"github.com/pepperhq/outlook-agent/storage"
	"github.com/pepperhq/outlook-agent/storage/memory"
)

// Server implements the Outlook backend logic. It coordinates the OAuth
// flow with Azure AD, the encrypted credential store, and the Graph client
// used for mailbox and calendar operations.
type Server struct {
	provider    providers.Provider
	store       storage.CredentialStore
	rateLimiter *security.RateLimiter
	logger      *slog.Logger
	config      *Config

	// Instrumentation is optional OpenTelemetry instrumentation,
	// propagated to the store and Graph clients.
	Instrumentation *instrumentation.Instrumentation

	now func() time.Time

	// newGraphClient is replaceable so handler tests can point Graph
	// operations at a test server.
	newGraphClient func(accessToken string) *graph.Client
}

// NewServer creates a new backend server from configuration. The credential
// store is in-memory with tokens encrypted under a key derived from the
// configured storage secret.
func NewServer(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	encryptor, err := security.NewEncryptor(security.DeriveKey(config.Security.StorageSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	store, err := memory.New(encryptor)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}
	store.SetLogger(logger)

	provider, err := azuread.NewProvider(&azuread.Config{
		ClientID:     config.AzureAD.ClientID,
		TenantID:     config.AzureAD.TenantID,
		ClientSecret: config.AzureAD.ClientSecret,
		RedirectURL:  config.AzureAD.RedirectURL,
		Scopes:       config.AzureAD.Scopes,
		HTTPClient:   config.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure AD provider: %w", err)
	}

	var rateLimiter *security.RateLimiter
	if config.RateLimit.Rate > 0 {
		rateLimiter = security.NewRateLimiter(config.RateLimit.Rate, config.RateLimit.Burst, logger)
	}

	return &Server{
		provider:       provider,
		store:          store,
		rateLimiter:    rateLimiter,
		logger:         logger,
		config:         config,
		now:            time.Now,
		newGraphClient: graph.NewClient,
	}, nil
}

// SetInstrumentation enables OpenTelemetry instrumentation across the
// server and its storage layer.
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.Instrumentation = inst
	if ms, ok := s.store.(*memory.Store); ok {
		ms.SetInstrumentation(inst)
	}
}

// Close releases background resources (the rate limiter's cleanup loop).
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// AuthResult is the outcome of a completed authorization flow.
type AuthResult struct {
	UserID    string
	Email     string
	Name      string
	TenantID  string
	ExpiresIn int64
}

// BeginAuthorization starts a login flow: it generates a state token and a
// PKCE pair, stashes the verifier keyed by state, and returns the Azure AD
// authorization URL to redirect the user to.
func (s *Server) BeginAuthorization(ctx context.Context) (authURL, state string, err error) {
	state, err = security.GenerateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	verifier, challenge, err := security.GeneratePKCEPair()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate PKCE pair: %w", err)
	}

	if err := s.store.SaveCodeVerifier(ctx, state, verifier); err != nil {
		return "", "", fmt.Errorf("failed to save code verifier: %w", err)
	}

	if s.Instrumentation != nil {
		s.Instrumentation.Metrics().RecordAuthorizationStarted(ctx)
	}

	s.logger.Info("Authorization flow started", "provider", s.provider.Name())
	return s.provider.AuthorizationURL(state, challenge, security.PKCEMethodS256), state, nil
}

// CompleteAuthorization finishes a login flow from the provider callback.
// The verifier for the state is consumed (single use), the code is
// exchanged with PKCE, the user is identified from the ID token, and the
// resulting tokens are stored encrypted under the user's ID.
func (s *Server) CompleteAuthorization(ctx context.Context, state, code string) (*AuthResult, error) {
	verifier, err := s.store.ConsumeCodeVerifier(ctx, state)
	if err != nil {
		if errors.Is(err, storage.ErrVerifierNotFound) {
			s.recordCallback(ctx, false)
			return nil, ErrInvalidState("unknown or already used state")
		}
		return nil, fmt.Errorf("failed to consume code verifier: %w", err)
	}

	token, err := s.provider.ExchangeCode(ctx, code, verifier)
	if err != nil {
		s.recordCallback(ctx, false)
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	info, err := s.provider.Identity(token)
	if err != nil {
		s.recordCallback(ctx, false)
		return nil, fmt.Errorf("failed to identify user: %w", err)
	}

	rec := storage.RecordFromOAuth2(token, s.now().UTC())
	if err := s.store.SaveTokens(ctx, info.ID, rec); err != nil {
		s.recordCallback(ctx, false)
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}

	s.recordCallback(ctx, true)
	s.logger.Info("Authorization completed", "has_refresh_token", rec.HasRefreshToken())

	return &AuthResult{
		UserID:    info.ID,
		Email:     info.Email,
		Name:      info.Name,
		TenantID:  info.TenantID,
		ExpiresIn: rec.ExpiresIn,
	}, nil
}

// Refresh exchanges the user's refresh token for a fresh access token and
// stores the updated record. When the provider doesn't rotate the refresh
// token, the previous one is carried forward.
func (s *Server) Refresh(ctx context.Context, userID string) (*storage.TokenRecord, error) {
	rec, err := s.store.GetTokens(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrNotAuthenticated("no stored credentials for user")
		}
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	if !rec.HasRefreshToken() {
		return nil, ErrInvalidRequest("no refresh token available, re-authentication required")
	}

	token, err := s.provider.RefreshToken(ctx, rec.RefreshToken)
	if err != nil {
		s.recordRefresh(ctx, false)
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	fresh := storage.RecordFromOAuth2(token, s.now().UTC())
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = rec.RefreshToken
	}
	if err := s.store.SaveTokens(ctx, userID, fresh); err != nil {
		s.recordRefresh(ctx, false)
		return nil, fmt.Errorf("failed to store refreshed tokens: %w", err)
	}

	s.recordRefresh(ctx, true)
	s.logger.Info("Token refreshed")
	return fresh, nil
}

// Logout deletes the user's stored credentials. Only local state is
// removed; the provider-side grant is untouched.
func (s *Server) Logout(ctx context.Context, userID string) (bool, error) {
	deleted, err := s.store.DeleteTokens(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete tokens: %w", err)
	}
	if deleted && s.Instrumentation != nil {
		s.Instrumentation.Metrics().RecordTokenRevocation(ctx)
	}
	return deleted, nil
}

// AuthStatus describes a user's authentication state.
type AuthStatus struct {
	Authenticated   bool
	Expired         bool
	HasRefreshToken bool
	ExpiresAt       time.Time
}

// Status reports whether the user has usable stored credentials.
func (s *Server) Status(ctx context.Context, userID string) *AuthStatus {
	rec, err := s.store.GetTokens(ctx, userID)
	if err != nil {
		return &AuthStatus{}
	}
	return &AuthStatus{
		Authenticated:   true,
		Expired:         rec.ExpiredAt(s.now().UTC()),
		HasRefreshToken: rec.HasRefreshToken(),
		ExpiresAt:       rec.ExpiresAt(),
	}
}

// GraphClient returns a Graph client holding a valid access token for the
// user, transparently refreshing an expired token when a refresh token is
// available.
func (s *Server) GraphClient(ctx context.Context, userID string) (*graph.Client, error) {
	rec, err := s.store.GetTokens(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrNotAuthenticated("no stored credentials for user")
		}
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	if rec.ExpiredAt(s.now().UTC()) {
		if !rec.HasRefreshToken() {
			return nil, NewAPIError(ErrorCodeTokenExpired,
				"access token expired and no refresh token available", 401)
		}
		rec, err = s.Refresh(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	client := s.newGraphClient(rec.AccessToken)
	client.SetLogger(s.logger)
	if s.Instrumentation != nil {
		client.SetInstrumentation(s.Instrumentation)
	}
	return client, nil
}

func (s *Server) recordCallback(ctx context.Context, success bool) {
	if s.Instrumentation != nil {
		s.Instrumentation.Metrics().RecordCallbackProcessed(ctx, success)
	}
}

func (s *Server) recordRefresh(ctx context.Context, success bool) {
	if s.Instrumentation != nil {
		s.Instrumentation.Metrics().RecordTokenRefresh(ctx, success)
	}
}
