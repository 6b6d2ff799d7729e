// Package azuread implements the providers.Provider interface for Microsoft
// Azure AD (Entra ID). It drives the authorization-code-with-PKCE flow
// against the tenant's v2.0 endpoints and extracts the user's object ID
// from the ID token issued alongside the access token.
package azuread
