// Package storage defines the credential persistence contract for the
// outlook-agent backend.
//
// The CredentialStore owns two keyed collections: encrypted OAuth token
// records keyed by user ID, and short-lived PKCE code verifiers keyed by the
// OAuth state parameter. Verifiers are single-use: retrieval removes the
// entry, so a replayed state value can never yield a second code exchange.
//
// Implementations are provided in subpackages:
//   - storage/memory: encrypted in-memory storage, the process-lifetime
//     store this backend is designed around
package storage
