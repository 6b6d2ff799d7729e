package graph

// Importance is an Outlook message importance level.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceNormal Importance = "normal"
	ImportanceHigh   Importance = "high"
)

// BodyType is an Outlook body content type.
type BodyType string

const (
	BodyTypeText BodyType = "Text"
	BodyTypeHTML BodyType = "HTML"
)

// graphError is Graph's error response envelope.
type graphError struct {
	E struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// EmailAddress wraps an address the way Graph shapes recipients.
type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Recipient is a Graph message recipient.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ItemBody is a Graph message or event body.
type ItemBody struct {
	ContentType BodyType `json:"contentType"`
	Content     string   `json:"content"`
}

// Message is an Outlook mail message as returned by Graph. Only the fields
// this backend consumes are mapped; Graph sends more.
type Message struct {
	ID               string      `json:"id"`
	Subject          string      `json:"subject"`
	BodyPreview      string      `json:"bodyPreview,omitempty"`
	Body             *ItemBody   `json:"body,omitempty"`
	Importance       Importance  `json:"importance,omitempty"`
	From             *Recipient  `json:"from,omitempty"`
	ToRecipients     []Recipient `json:"toRecipients,omitempty"`
	CcRecipients     []Recipient `json:"ccRecipients,omitempty"`
	ReceivedDateTime string      `json:"receivedDateTime,omitempty"`
	IsRead           bool        `json:"isRead,omitempty"`
	HasAttachments   bool        `json:"hasAttachments,omitempty"`
	IsDraft          bool        `json:"isDraft,omitempty"`
	WebLink          string      `json:"webLink,omitempty"`
}

// messagePayload is the outbound message shape for drafts and sends.
// CcRecipients is omitted entirely when empty.
type messagePayload struct {
	Subject      string      `json:"subject"`
	Importance   Importance  `json:"importance"`
	Body         ItemBody    `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
	CcRecipients []Recipient `json:"ccRecipients,omitempty"`
}

// sendMailPayload nests a from-scratch message for POST /me/sendMail.
type sendMailPayload struct {
	Message messagePayload `json:"message"`
}

// messageList is the Graph collection envelope for messages.
type messageList struct {
	Value []Message `json:"value"`
}

// DateTimeTimeZone is Graph's date-plus-zone pair. DateTime carries no UTC
// offset; TimeZone names the zone it should be interpreted in.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Attendee is a Graph event attendee.
type Attendee struct {
	EmailAddress EmailAddress `json:"emailAddress"`
	Type         string       `json:"type"`
}

// Location is a Graph event location.
type Location struct {
	DisplayName string `json:"displayName"`
}

// OnlineMeetingInfo carries the join link of an online meeting.
type OnlineMeetingInfo struct {
	JoinURL string `json:"joinUrl"`
}

// Event is an Outlook calendar event as returned by Graph.
type Event struct {
	ID                    string             `json:"id"`
	Subject               string             `json:"subject"`
	Start                 *DateTimeTimeZone  `json:"start,omitempty"`
	End                   *DateTimeTimeZone  `json:"end,omitempty"`
	Location              *Location          `json:"location,omitempty"`
	Body                  *ItemBody          `json:"body,omitempty"`
	Attendees             []Attendee         `json:"attendees,omitempty"`
	IsOnlineMeeting       bool               `json:"isOnlineMeeting,omitempty"`
	OnlineMeetingProvider string             `json:"onlineMeetingProvider,omitempty"`
	OnlineMeeting         *OnlineMeetingInfo `json:"onlineMeeting,omitempty"`
	WebLink               string             `json:"webLink,omitempty"`
}

// eventPayload is the outbound event shape for POST /me/events.
type eventPayload struct {
	Subject               string           `json:"subject"`
	Start                 DateTimeTimeZone `json:"start"`
	End                   DateTimeTimeZone `json:"end"`
	Attendees             []Attendee       `json:"attendees"`
	Location              *Location        `json:"location,omitempty"`
	Body                  *ItemBody        `json:"body,omitempty"`
	IsOnlineMeeting       bool             `json:"isOnlineMeeting,omitempty"`
	OnlineMeetingProvider string           `json:"onlineMeetingProvider,omitempty"`
}

// schedulePayload is the outbound shape for POST /me/calendar/getSchedule.
type schedulePayload struct {
	Schedules                []string         `json:"schedules"`
	StartTime                DateTimeTimeZone `json:"startTime"`
	EndTime                  DateTimeTimeZone `json:"endTime"`
	AvailabilityViewInterval int              `json:"availabilityViewInterval"`
}

// ScheduleItem is one busy/free block in a schedule response.
type ScheduleItem struct {
	Status string            `json:"status"`
	Start  *DateTimeTimeZone `json:"start,omitempty"`
	End    *DateTimeTimeZone `json:"end,omitempty"`
}

// ScheduleInformation is one attendee's availability in a schedule response.
type ScheduleInformation struct {
	ScheduleID       string         `json:"scheduleId"`
	AvailabilityView string         `json:"availabilityView"`
	ScheduleItems    []ScheduleItem `json:"scheduleItems,omitempty"`
}

// scheduleList is the Graph collection envelope for schedule queries.
type scheduleList struct {
	Value []ScheduleInformation `json:"value"`
}

// makeRecipients shapes addresses as {emailAddress:{address}} objects.
func makeRecipients(addresses []string) []Recipient {
	if len(addresses) == 0 {
		return nil
	}
	recipients := make([]Recipient, 0, len(addresses))
	for _, addr := range addresses {
		recipients = append(recipients, Recipient{EmailAddress: EmailAddress{Address: addr}})
	}
	return recipients
}

// makeAttendees shapes addresses as required attendees.
func makeAttendees(addresses []string) []Attendee {
	attendees := make([]Attendee, 0, len(addresses))
	for _, addr := range addresses {
		attendees = append(attendees, Attendee{
			EmailAddress: EmailAddress{Address: addr},
			Type:         "required",
		})
	}
	return attendees
}
