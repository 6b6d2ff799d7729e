package graph

import (
	"context"
	"net/http"
	"time"

	"github.com/pepperhq/outlook-agent/internal/util"
)

const (
	// calendarDateFormat is the local wall-clock format Graph expects in
	// dateTimeTimeZone values. The zone travels separately in the
	// timeZone field, so the timestamp carries no offset.
	calendarDateFormat = "2006-01-02T15:04:05"

	// DefaultTimeZone is used when the caller doesn't name one.
	DefaultTimeZone = "UTC"

	// onlineMeetingProvider is the provider Graph expects for Teams
	// meetings created through the events endpoint.
	onlineMeetingProvider = "teamsForBusiness"
)

// ScheduleParams describes a free/busy lookup across attendees.
type ScheduleParams struct {
	// Attendees are the email addresses whose calendars to check. The
	// caller's own availability comes back only if included here.
	Attendees []string

	// DurationMinutes is the meeting slot length, used as the
	// availability view interval.
	DurationMinutes int

	Start time.Time
	End   time.Time

	// TimeZone defaults to DefaultTimeZone.
	TimeZone string
}

// CheckAvailability returns free/busy schedule information for the given
// attendees over the requested window.
func (c *Client) CheckAvailability(ctx context.Context, p ScheduleParams) ([]ScheduleInformation, error) {
	if len(p.Attendees) == 0 {
		return nil, newValidationError("at least one attendee is required")
	}
	if p.DurationMinutes <= 0 {
		return nil, newValidationError("duration must be positive")
	}
	if !p.End.After(p.Start) {
		return nil, newValidationError("end time must be after start time")
	}

	tz := p.TimeZone
	if tz == "" {
		tz = DefaultTimeZone
	}

	payload := schedulePayload{
		Schedules: p.Attendees,
		StartTime: DateTimeTimeZone{
			DateTime: p.Start.Format(calendarDateFormat),
			TimeZone: tz,
		},
		EndTime: DateTimeTimeZone{
			DateTime: p.End.Format(calendarDateFormat),
			TimeZone: tz,
		},
		AvailabilityViewInterval: p.DurationMinutes,
	}

	var list scheduleList
	if err := c.do(ctx, http.MethodPost, "/me/calendar/getSchedule", payload, nil, &list); err != nil {
		return nil, err
	}

	c.logger.Info("Checked availability", "attendees", len(p.Attendees), "schedules", len(list.Value))
	return list.Value, nil
}

// MeetingParams describes a calendar event to create.
type MeetingParams struct {
	Subject   string
	Attendees []string
	Start     time.Time
	End       time.Time

	// Location is optional.
	Location string

	// Body is an optional HTML description.
	Body string

	// IsOnline requests a Teams meeting; the created event carries a
	// join URL.
	IsOnline bool

	// TimeZone defaults to DefaultTimeZone.
	TimeZone string
}

// ScheduleMeeting creates a calendar event and invites the attendees.
func (c *Client) ScheduleMeeting(ctx context.Context, p MeetingParams) (*Event, error) {
	if p.Subject == "" {
		return nil, newValidationError("subject is required")
	}
	if len(p.Attendees) == 0 {
		return nil, newValidationError("at least one attendee is required")
	}
	if !p.End.After(p.Start) {
		return nil, newValidationError("end time must be after start time")
	}

	tz := p.TimeZone
	if tz == "" {
		tz = DefaultTimeZone
	}

	payload := eventPayload{
		Subject: p.Subject,
		Start: DateTimeTimeZone{
			DateTime: p.Start.Format(calendarDateFormat),
			TimeZone: tz,
		},
		End: DateTimeTimeZone{
			DateTime: p.End.Format(calendarDateFormat),
			TimeZone: tz,
		},
		Attendees: makeAttendees(p.Attendees),
	}
	if p.Location != "" {
		payload.Location = &Location{DisplayName: p.Location}
	}
	if p.Body != "" {
		payload.Body = &ItemBody{ContentType: BodyTypeHTML, Content: p.Body}
	}
	if p.IsOnline {
		payload.IsOnlineMeeting = true
		payload.OnlineMeetingProvider = onlineMeetingProvider
	}

	var event Event
	if err := c.do(ctx, http.MethodPost, "/me/events", payload, nil, &event); err != nil {
		return nil, err
	}

	c.logger.Info("Scheduled meeting",
		"event_id", util.SafeTruncate(event.ID, idLogLength),
		"attendees", len(p.Attendees),
		"online", p.IsOnline)
	return &event, nil
}
