package security

import "net/http"

// SetSecurityHeaders sets hardening headers on API responses. The backend
// serves JSON and OAuth redirects only, so the policy is strict: nothing may
// frame these pages and nothing is cacheable (responses carry tokens and
// mailbox content).
func SetSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	w.Header().Set("Pragma", "no-cache")
}
