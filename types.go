package outlook

import (
	"github.com/pepperhq/outlook-agent/graph"
)

// callbackResponse is the JSON result of a completed login.
type callbackResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	ExpiresIn int64  `json:"expires_in"`
}

// userRequest carries the user identifier for refresh and logout.
type userRequest struct {
	UserID string `json:"user_id"`
}

// refreshResponse reports the refreshed token's lifetime.
type refreshResponse struct {
	ExpiresIn       int64  `json:"expires_in"`
	ExpiresAt       string `json:"expires_at"`
	HasRefreshToken bool   `json:"has_refresh_token"`
}

// logoutResponse confirms credential deletion.
type logoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

// statusResponse describes a user's authentication state.
type statusResponse struct {
	Authenticated   bool   `json:"authenticated"`
	Expired         bool   `json:"expired,omitempty"`
	HasRefreshToken bool   `json:"has_refresh_token,omitempty"`
	ExpiresAt       string `json:"expires_at,omitempty"`
}

// emailDraftRequest creates a draft in the user's mailbox.
type emailDraftRequest struct {
	UserID     string   `json:"user_id"`
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	CC         []string `json:"cc,omitempty"`
	Importance string   `json:"importance,omitempty"`
	BodyType   string   `json:"body_type,omitempty"`
}

// emailSendRequest sends an existing draft by ID, or composes and sends in
// one step when draft_id is empty.
type emailSendRequest struct {
	UserID     string   `json:"user_id"`
	DraftID    string   `json:"draft_id,omitempty"`
	To         []string `json:"to,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Body       string   `json:"body,omitempty"`
	CC         []string `json:"cc,omitempty"`
	Importance string   `json:"importance,omitempty"`
	BodyType   string   `json:"body_type,omitempty"`
}

// sendResponse confirms a send.
type sendResponse struct {
	Status string `json:"status"`
}

// emailSearchRequest searches the user's mailbox.
type emailSearchRequest struct {
	UserID   string `json:"user_id"`
	Query    string `json:"query,omitempty"`
	Folder   string `json:"folder,omitempty"`
	Top      int    `json:"top,omitempty"`
	FromDate string `json:"from_date,omitempty"` // RFC 3339
}

// emailSearchResponse lists matching messages.
type emailSearchResponse struct {
	Messages []graph.Message `json:"messages"`
	Count    int             `json:"count"`
}

// emailReadRequest retrieves one message with full content.
type emailReadRequest struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
}

// availabilityRequest checks attendee free/busy schedules.
type availabilityRequest struct {
	UserID          string   `json:"user_id"`
	Attendees       []string `json:"attendees"`
	DurationMinutes int      `json:"duration_minutes"`
	Start           string   `json:"start"` // RFC 3339
	End             string   `json:"end"`   // RFC 3339
	TimeZone        string   `json:"time_zone,omitempty"`
}

// availabilityResponse lists per-attendee schedules.
type availabilityResponse struct {
	Schedules []graph.ScheduleInformation `json:"schedules"`
}

// meetingRequest creates a calendar event.
type meetingRequest struct {
	UserID    string   `json:"user_id"`
	Subject   string   `json:"subject"`
	Attendees []string `json:"attendees"`
	Start     string   `json:"start"` // RFC 3339
	End       string   `json:"end"`   // RFC 3339
	Location  string   `json:"location,omitempty"`
	Body      string   `json:"body,omitempty"`
	IsOnline  bool     `json:"is_online,omitempty"`
	TimeZone  string   `json:"time_zone,omitempty"`
}

// healthResponse reports service health and any missing configuration.
type healthResponse struct {
	Status  string   `json:"status"`
	Missing []string `json:"missing_configuration,omitempty"`
}

// bannerResponse identifies the service on the root path.
type bannerResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}
