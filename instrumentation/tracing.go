package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys
//
// SECURITY WARNING: Never put actual sensitive values (access tokens,
// refresh tokens, code verifiers, client secrets) in traces or metrics.
// Only record metadata such as token types, expiry times, and validation
// results. Traces are persisted, replicated across monitoring
// infrastructure, and often visible to wider audiences than production
// systems.
const (
	// Auth flow attributes - SAFE for metadata only
	AttrUserID     = "auth.user_id"     // User identifier (non-secret)
	AttrTenantID   = "auth.tenant_id"   // Azure AD tenant (non-secret)
	AttrScope      = "auth.scope"       // Requested scopes
	AttrPKCEMethod = "auth.pkce.method" // PKCE method used (S256)
	AttrTokenType  = "auth.token_type"  //nolint:gosec // Token type (Bearer), NOT the token
	AttrExpiresIn  = "auth.expires_in"  // Token expiry duration

	// Storage attributes
	AttrStorageOperation = "storage.operation"
	AttrStorageFound     = "storage.found"

	// Graph attributes
	AttrGraphEndpoint  = "graph.endpoint"
	AttrGraphStatus    = "graph.status"
	AttrGraphAttempts  = "graph.attempts"
	AttrGraphErrorKind = "graph.error_kind"

	// HTTP attributes (in addition to standard semantic conventions)
	AttrHTTPEndpoint   = "http.endpoint"
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
)

// RecordError records an error on a span with proper status codes (nil-safe).
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe).
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe).
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddAuthFlowAttributes adds common auth flow attributes to a span (nil-safe).
func AddAuthFlowAttributes(span trace.Span, userID, scope string) {
	if userID != "" {
		SetSpanAttributes(span, attribute.String(AttrUserID, userID))
	}
	if scope != "" {
		SetSpanAttributes(span, attribute.String(AttrScope, scope))
	}
}

// AddHTTPAttributes adds HTTP request attributes to a span (nil-safe).
func AddHTTPAttributes(span trace.Span, method, endpoint string, statusCode int) {
	SetSpanAttributes(span,
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
}
