package storage

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenRecord is the unit of credential storage for one user. It mirrors the
// fields of the provider's token response plus StoredAt, the moment the
// record entered storage. Expiry is always evaluated against StoredAt, never
// against a caller-supplied clock, so a record cannot be kept alive by
// re-reading it.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`

	// StoredAt is stamped by the store on save. Zero until stored.
	StoredAt time.Time `json:"stored_at"`
}

// ExpiresAt returns the instant the access token expires.
func (r *TokenRecord) ExpiresAt() time.Time {
	return r.StoredAt.Add(time.Duration(r.ExpiresIn) * time.Second)
}

// ExpiredAt reports whether the token is expired at the given instant.
// The boundary itself counts as expired.
func (r *TokenRecord) ExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt())
}

// HasRefreshToken reports whether the record can be refreshed.
func (r *TokenRecord) HasRefreshToken() bool {
	return r.RefreshToken != ""
}

// RecordFromOAuth2 builds a TokenRecord from a golang.org/x/oauth2 token.
// ExpiresIn is derived from the token's Expiry relative to now; tokens
// without an expiry get zero (immediately treated as expired, forcing a
// refresh path that will fail loudly rather than silently using a stale
// token).
func RecordFromOAuth2(tok *oauth2.Token, now time.Time) *TokenRecord {
	rec := &TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}
	if !tok.Expiry.IsZero() {
		rec.ExpiresIn = int64(tok.Expiry.Sub(now) / time.Second)
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		rec.Scope = scope
	}
	return rec
}
