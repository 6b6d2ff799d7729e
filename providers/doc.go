// Package providers defines the interface for OAuth identity providers.
// The backend ships with an Azure AD implementation in providers/azuread;
// the interface exists so tests can substitute a fake and so another
// Microsoft cloud (or a mock IdP) can be wired without touching callers.
package providers
