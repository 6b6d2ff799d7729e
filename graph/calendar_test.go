package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability(t *testing.T) {
	var gotBody map[string]interface{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/calendar/getSchedule", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		w.Write([]byte(`{"value":[{"scheduleId":"alice@example.com","availabilityView":"000222000"}]}`))
	}))

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	schedules, err := c.CheckAvailability(context.Background(), ScheduleParams{
		Attendees:       []string{"alice@example.com", "bob@example.com"},
		DurationMinutes: 30,
		Start:           start,
		End:             start.Add(8 * time.Hour),
		TimeZone:        "Pacific Standard Time",
	})
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, "alice@example.com", schedules[0].ScheduleID)
	assert.Equal(t, "000222000", schedules[0].AvailabilityView)

	assert.Equal(t, []interface{}{"alice@example.com", "bob@example.com"}, gotBody["schedules"])
	assert.Equal(t, float64(30), gotBody["availabilityViewInterval"])

	startTime := gotBody["startTime"].(map[string]interface{})
	// Graph wall-clock format carries no UTC offset.
	assert.Equal(t, "2026-09-01T09:00:00", startTime["dateTime"])
	assert.Equal(t, "Pacific Standard Time", startTime["timeZone"])
}

func TestCheckAvailability_DefaultTimeZone(t *testing.T) {
	var gotBody map[string]interface{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"value":[]}`))
	}))

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	_, err := c.CheckAvailability(context.Background(), ScheduleParams{
		Attendees:       []string{"alice@example.com"},
		DurationMinutes: 60,
		Start:           start,
		End:             start.Add(time.Hour),
	})
	require.NoError(t, err)

	endTime := gotBody["endTime"].(map[string]interface{})
	assert.Equal(t, "UTC", endTime["timeZone"])
}

func TestCheckAvailability_Validation(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		params ScheduleParams
	}{
		{"no attendees", ScheduleParams{DurationMinutes: 30, Start: start, End: start.Add(time.Hour)}},
		{"zero duration", ScheduleParams{Attendees: []string{"a@example.com"}, Start: start, End: start.Add(time.Hour)}},
		{"end before start", ScheduleParams{Attendees: []string{"a@example.com"}, DurationMinutes: 30, Start: start, End: start}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CheckAvailability(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestScheduleMeeting_Online(t *testing.T) {
	var gotBody map[string]interface{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/events", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"evt-1","subject":"Sync","isOnlineMeeting":true,"onlineMeeting":{"joinUrl":"https://teams.microsoft.com/l/meetup-join/abc"}}`))
	}))

	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	event, err := c.ScheduleMeeting(context.Background(), MeetingParams{
		Subject:   "Sync",
		Attendees: []string{"alice@example.com"},
		Start:     start,
		End:       start.Add(30 * time.Minute),
		IsOnline:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", event.ID)
	require.NotNil(t, event.OnlineMeeting)
	assert.Contains(t, event.OnlineMeeting.JoinURL, "teams.microsoft.com")

	assert.Equal(t, true, gotBody["isOnlineMeeting"])
	assert.Equal(t, "teamsForBusiness", gotBody["onlineMeetingProvider"])

	attendees := gotBody["attendees"].([]interface{})
	require.Len(t, attendees, 1)
	attendee := attendees[0].(map[string]interface{})
	assert.Equal(t, "required", attendee["type"])
	assert.Equal(t, "alice@example.com",
		attendee["emailAddress"].(map[string]interface{})["address"])

	startField := gotBody["start"].(map[string]interface{})
	assert.Equal(t, "2026-09-02T14:00:00", startField["dateTime"])
	assert.Equal(t, "UTC", startField["timeZone"])
}

func TestScheduleMeeting_InPerson(t *testing.T) {
	var gotBody map[string]interface{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"id":"evt-2"}`))
	}))

	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	_, err := c.ScheduleMeeting(context.Background(), MeetingParams{
		Subject:   "Design review",
		Attendees: []string{"alice@example.com"},
		Start:     start,
		End:       start.Add(time.Hour),
		Location:  "Room 4B",
		Body:      "<p>Bring mockups.</p>",
	})
	require.NoError(t, err)

	// Offline meetings carry neither online-meeting field.
	_, hasOnline := gotBody["isOnlineMeeting"]
	assert.False(t, hasOnline)
	_, hasProvider := gotBody["onlineMeetingProvider"]
	assert.False(t, hasProvider)

	location := gotBody["location"].(map[string]interface{})
	assert.Equal(t, "Room 4B", location["displayName"])

	body := gotBody["body"].(map[string]interface{})
	assert.Equal(t, "HTML", body["contentType"])
	assert.Equal(t, "<p>Bring mockups.</p>", body["content"])
}

func TestScheduleMeeting_Validation(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))

	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		params MeetingParams
	}{
		{"no subject", MeetingParams{Attendees: []string{"a@example.com"}, Start: start, End: start.Add(time.Hour)}},
		{"no attendees", MeetingParams{Subject: "s", Start: start, End: start.Add(time.Hour)}},
		{"end equals start", MeetingParams{Subject: "s", Attendees: []string{"a@example.com"}, Start: start, End: start}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ScheduleMeeting(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}
