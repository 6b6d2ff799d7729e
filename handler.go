package outlook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/pepperhq/outlook-agent/graph"
	"github.com/pepperhq/outlook-agent/instrumentation"
	"github.com/pepperhq/outlook-agent/security"
)

const serviceName = "outlook-agent"

// Handler is a thin HTTP adapter for the Server. It handles HTTP requests
// and delegates to the Server for business logic.
type Handler struct {
	server *Server
	logger *slog.Logger
	tracer trace.Tracer
}

// NewHandler creates a new HTTP handler wrapping a server.
func NewHandler(server *Server, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		server: server,
		logger: logger,
	}

	if server.Instrumentation != nil {
		h.tracer = server.Instrumentation.Tracer("http")
	}

	return h
}

// Routes builds the HTTP mux with all endpoints wired, wrapped in the
// request ID and rate limiting middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/login", h.HandleLogin)
	mux.HandleFunc("GET /auth/callback", h.HandleCallback)
	mux.HandleFunc("POST /auth/refresh", h.HandleRefresh)
	mux.HandleFunc("POST /auth/logout", h.HandleLogout)
	mux.HandleFunc("GET /auth/status/{user_id}", h.HandleStatus)

	mux.HandleFunc("POST /graph/email/draft", h.HandleEmailDraft)
	mux.HandleFunc("POST /graph/email/send", h.HandleEmailSend)
	mux.HandleFunc("POST /graph/email/search", h.HandleEmailSearch)
	mux.HandleFunc("POST /graph/email/read", h.HandleEmailRead)
	mux.HandleFunc("POST /graph/calendar/availability", h.HandleAvailability)
	mux.HandleFunc("POST /graph/calendar/meeting", h.HandleMeeting)

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /{$}", h.HandleRoot)

	return security.RequestIDMiddleware(h.rateLimitMiddleware(mux))
}

// rateLimitMiddleware rejects requests from IPs that exceed the configured
// rate. The health endpoint is exempt so probes keep working under load.
func (h *Handler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.server.rateLimiter != nil && r.URL.Path != "/health" {
			clientIP := h.clientIP(r)
			if !h.server.rateLimiter.Allow(clientIP) {
				h.logger.Warn("Rate limit exceeded", "ip", clientIP, "path", r.URL.Path)
				if h.server.Instrumentation != nil {
					h.server.Instrumentation.Metrics().RecordRateLimitExceeded(r.Context(), "ip")
				}
				h.writeError(w, ErrorCodeRateLimitExceeded,
					"Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP, honoring proxy headers only when the
// configuration says the proxy is trusted.
func (h *Handler) clientIP(r *http.Request) string {
	if h.server.config.RateLimit.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			return strings.TrimSpace(parts[0])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HandleLogin starts an authorization flow and redirects to Azure AD.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "auth.login")
	defer h.endSpan(span)

	authURL, state, err := h.server.BeginAuthorization(ctx)
	if err != nil {
		h.logger.Error("Failed to begin authorization", "error", err)
		h.finishRequest(ctx, span, "login", r.Method, http.StatusInternalServerError, start, err)
		h.writeError(w, ErrorCodeServerError, "Failed to start authorization flow", http.StatusInternalServerError)
		return
	}

	h.finishRequest(ctx, span, "login", r.Method, http.StatusFound, start, nil)
	h.logger.Info("Redirecting to provider", "state_length", len(state))
	security.SetSecurityHeaders(w)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback finishes the flow from the Azure AD redirect.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "auth.callback")
	defer h.endSpan(span)

	query := r.URL.Query()
	if errCode := query.Get("error"); errCode != "" {
		desc := query.Get("error_description")
		h.logger.Warn("Provider returned error on callback", "error", errCode)
		h.finishRequest(ctx, span, "callback", r.Method, http.StatusBadRequest, start, nil)
		h.writeError(w, errCode, desc, http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		h.finishRequest(ctx, span, "callback", r.Method, http.StatusBadRequest, start, nil)
		h.writeError(w, ErrorCodeInvalidRequest, "code and state parameters are required", http.StatusBadRequest)
		return
	}

	result, err := h.server.CompleteAuthorization(ctx, state, code)
	if err != nil {
		h.logger.Error("Authorization completion failed", "error", err)
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "callback", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "callback", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, callbackResponse{
		UserID:    result.UserID,
		Email:     result.Email,
		Name:      result.Name,
		TenantID:  result.TenantID,
		ExpiresIn: result.ExpiresIn,
	})
}

// HandleRefresh refreshes the user's access token.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "auth.refresh")
	defer h.endSpan(span)

	var req userRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "refresh", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	rec, err := h.server.Refresh(ctx, req.UserID)
	if err != nil {
		// Refresh against an unknown user is a 404: there is nothing to
		// refresh, not a credential problem.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == ErrorCodeNotAuthenticated {
			h.finishRequest(ctx, span, "refresh", r.Method, http.StatusNotFound, start, err)
			h.writeError(w, ErrorCodeNotFound, apiErr.Description, http.StatusNotFound)
			return
		}
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "refresh", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "refresh", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, refreshResponse{
		ExpiresIn:       rec.ExpiresIn,
		ExpiresAt:       rec.ExpiresAt().Format(time.RFC3339),
		HasRefreshToken: rec.HasRefreshToken(),
	})
}

// HandleLogout deletes the user's stored credentials.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "auth.logout")
	defer h.endSpan(span)

	var req userRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "logout", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	deleted, err := h.server.Logout(ctx, req.UserID)
	if err != nil {
		h.finishRequest(ctx, span, "logout", r.Method, http.StatusInternalServerError, start, err)
		h.writeError(w, ErrorCodeServerError, "Failed to delete credentials", http.StatusInternalServerError)
		return
	}
	if !deleted {
		h.finishRequest(ctx, span, "logout", r.Method, http.StatusNotFound, start, nil)
		h.writeError(w, ErrorCodeNotFound, "no stored credentials for user", http.StatusNotFound)
		return
	}

	h.finishRequest(ctx, span, "logout", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, logoutResponse{LoggedOut: true})
}

// HandleStatus reports the user's authentication state.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "auth.status")
	defer h.endSpan(span)

	userID := r.PathValue("user_id")
	status := h.server.Status(ctx, userID)

	resp := statusResponse{
		Authenticated:   status.Authenticated,
		Expired:         status.Expired,
		HasRefreshToken: status.HasRefreshToken,
	}
	if status.Authenticated {
		resp.ExpiresAt = status.ExpiresAt.Format(time.RFC3339)
	}

	h.finishRequest(ctx, span, "status", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleEmailDraft creates a draft email.
func (h *Handler) HandleEmailDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "email.draft")
	defer h.endSpan(span)

	var req emailDraftRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "email_draft", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	client, err := h.server.GraphClient(ctx, req.UserID)
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_draft", r.Method, status, start, err)
		return
	}

	draft, err := client.CreateDraft(ctx, graph.ComposeParams{
		To:         req.To,
		Subject:    req.Subject,
		Body:       req.Body,
		CC:         req.CC,
		Importance: graph.Importance(req.Importance),
		BodyType:   graph.BodyType(req.BodyType),
	})
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_draft", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "email_draft", r.Method, http.StatusCreated, start, nil)
	h.writeJSON(w, http.StatusCreated, draft)
}

// HandleEmailSend sends an email, either an existing draft or from scratch.
func (h *Handler) HandleEmailSend(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "email.send")
	defer h.endSpan(span)

	var req emailSendRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "email_send", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	client, err := h.server.GraphClient(ctx, req.UserID)
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_send", r.Method, status, start, err)
		return
	}

	err = client.SendEmail(ctx, graph.SendEmailParams{
		DraftID: req.DraftID,
		ComposeParams: graph.ComposeParams{
			To:         req.To,
			Subject:    req.Subject,
			Body:       req.Body,
			CC:         req.CC,
			Importance: graph.Importance(req.Importance),
			BodyType:   graph.BodyType(req.BodyType),
		},
	})
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_send", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "email_send", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

// HandleEmailSearch searches the user's mailbox.
func (h *Handler) HandleEmailSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "email.search")
	defer h.endSpan(span)

	var req emailSearchRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "email_search", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	var fromDate time.Time
	if req.FromDate != "" {
		var err error
		fromDate, err = time.Parse(time.RFC3339, req.FromDate)
		if err != nil {
			h.finishRequest(ctx, span, "email_search", r.Method, http.StatusBadRequest, start, nil)
			h.writeError(w, ErrorCodeInvalidRequest,
				fmt.Sprintf("invalid from_date: %v", err), http.StatusBadRequest)
			return
		}
	}

	client, err := h.server.GraphClient(ctx, req.UserID)
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_search", r.Method, status, start, err)
		return
	}

	messages, err := client.SearchEmails(ctx, graph.SearchParams{
		Query:    req.Query,
		Folder:   req.Folder,
		Top:      req.Top,
		FromDate: fromDate,
	})
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_search", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "email_search", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, emailSearchResponse{Messages: messages, Count: len(messages)})
}

// HandleEmailRead retrieves one message with full content.
func (h *Handler) HandleEmailRead(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "email.read")
	defer h.endSpan(span)

	var req emailReadRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "email_read", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	client, err := h.server.GraphClient(ctx, req.UserID)
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_read", r.Method, status, start, err)
		return
	}

	msg, err := client.ReadEmail(ctx, req.MessageID)
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "email_read", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "email_read", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, msg)
}

// HandleAvailability checks attendee free/busy schedules.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "calendar.availability")
	defer h.endSpan(span)

	var req availabilityRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "availability", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	window, ok := h.parseWindow(w, req.Start, req.End)
	if !ok {
		h.finishRequest(ctx, span, "availability", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	client, err := h.server.GraphClient(ctx, req.UserID)
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "availability", r.Method, status, start, err)
		return
	}

	schedules, err := client.CheckAvailability(ctx, graph.ScheduleParams{
		Attendees:       req.Attendees,
		DurationMinutes: req.DurationMinutes,
		Start:           window.start,
		End:             window.end,
		TimeZone:        req.TimeZone,
	})
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "availability", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "availability", r.Method, http.StatusOK, start, nil)
	h.writeJSON(w, http.StatusOK, availabilityResponse{Schedules: schedules})
}

// HandleMeeting creates a calendar event.
func (h *Handler) HandleMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, span, start := h.startRequest(r, "calendar.meeting")
	defer h.endSpan(span)

	var req meetingRequest
	if !h.decodeBody(w, r, &req) || !h.requireUserID(w, req.UserID) {
		h.finishRequest(ctx, span, "meeting", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	window, ok := h.parseWindow(w, req.Start, req.End)
	if !ok {
		h.finishRequest(ctx, span, "meeting", r.Method, http.StatusBadRequest, start, nil)
		return
	}

	client, err := h.server.GraphClient(ctx, req.UserID)
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "meeting", r.Method, status, start, err)
		return
	}

	event, err := client.ScheduleMeeting(ctx, graph.MeetingParams{
		Subject:   req.Subject,
		Attendees: req.Attendees,
		Start:     window.start,
		End:       window.end,
		Location:  req.Location,
		Body:      req.Body,
		IsOnline:  req.IsOnline,
		TimeZone:  req.TimeZone,
	})
	if err != nil {
		status := h.writeMappedError(w, err)
		h.finishRequest(ctx, span, "meeting", r.Method, status, start, err)
		return
	}

	h.finishRequest(ctx, span, "meeting", r.Method, http.StatusCreated, start, nil)
	h.writeJSON(w, http.StatusCreated, event)
}

// HandleHealth reports whether required configuration is present.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	missing := h.server.config.MissingFields()
	if len(missing) > 0 {
		h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unhealthy",
			Missing: missing,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// HandleRoot serves the service banner.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, bannerResponse{Service: serviceName, Status: "running"})
}

type timeWindow struct {
	start, end time.Time
}

// parseWindow parses the RFC 3339 start/end pair shared by the calendar
// endpoints, writing the error response itself on failure.
func (h *Handler) parseWindow(w http.ResponseWriter, startStr, endStr string) (timeWindow, bool) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		h.writeError(w, ErrorCodeInvalidRequest, fmt.Sprintf("invalid start: %v", err), http.StatusBadRequest)
		return timeWindow{}, false
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		h.writeError(w, ErrorCodeInvalidRequest, fmt.Sprintf("invalid end: %v", err), http.StatusBadRequest)
		return timeWindow{}, false
	}
	return timeWindow{start: start, end: end}, true
}

// decodeBody decodes a JSON request body, writing the error response itself
// on failure.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, ErrorCodeInvalidRequest, "Failed to parse request body", http.StatusBadRequest)
		return false
	}
	return true
}

// requireUserID rejects requests without a user ID.
func (h *Handler) requireUserID(w http.ResponseWriter, userID string) bool {
	if userID == "" {
		h.writeError(w, ErrorCodeInvalidRequest, "user_id is required", http.StatusBadRequest)
		return false
	}
	return true
}

// writeMappedError writes the response for a failed operation, translating
// graph and API errors onto the HTTP surface. Returns the status written.
func (h *Handler) writeMappedError(w http.ResponseWriter, err error) int {
	var ge *graph.Error
	if errors.As(err, &ge) {
		apiErr := apiErrorFromGraph(ge)
		h.writeError(w, apiErr.Code, apiErr.Description, apiErr.Status)
		return apiErr.Status
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		h.writeError(w, apiErr.Code, apiErr.Description, apiErr.Status)
		return apiErr.Status
	}

	h.writeError(w, ErrorCodeServerError, "Internal server error", http.StatusInternalServerError)
	return http.StatusInternalServerError
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	security.SetSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code, description string, status int) {
	security.SetSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}

// startRequest begins a tracing span for an endpoint when instrumentation
// is enabled.
func (h *Handler) startRequest(r *http.Request, name string) (context.Context, trace.Span, time.Time) {
	ctx := r.Context()
	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, name)
	}
	return ctx, span, time.Now()
}

func (h *Handler) endSpan(span trace.Span) {
	if span != nil {
		span.End()
	}
}

// finishRequest records HTTP metrics and span outcome for an endpoint.
func (h *Handler) finishRequest(ctx context.Context, span trace.Span, endpoint, method string, status int, start time.Time, err error) {
	if h.server.Instrumentation != nil {
		duration := time.Since(start).Seconds() * 1000
		h.server.Instrumentation.Metrics().RecordHTTPRequest(ctx, method, endpoint, status, duration)
	}
	if span != nil {
		instrumentation.AddHTTPAttributes(span, method, endpoint, status)
		instrumentation.RecordError(span, err)
	}
}
