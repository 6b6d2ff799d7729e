package graph

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pepperhq/outlook-agent/internal/util"
)

const (
	// MaxSearchResults caps the $top page-size parameter regardless of
	// caller input; Graph rejects larger pages.
	MaxSearchResults = 1000

	// defaultSearchResults is the page size when the caller doesn't ask
	// for one.
	defaultSearchResults = 10

	// DefaultFolder is the mail folder searched when none is given.
	DefaultFolder = "inbox"

	// searchDateFormat renders the receivedDateTime lower bound as an
	// ISO-8601 UTC timestamp.
	searchDateFormat = "2006-01-02T15:04:05Z"

	idLogLength = 12
)

// ComposeParams describes an email to compose.
type ComposeParams struct {
	To      []string
	Subject string
	Body    string
	CC      []string

	// Importance defaults to ImportanceNormal.
	Importance Importance

	// BodyType defaults to BodyTypeHTML.
	BodyType BodyType
}

// buildMessage shapes ComposeParams into the Graph message payload.
func buildMessage(p ComposeParams) messagePayload {
	importance := p.Importance
	if importance == "" {
		importance = ImportanceNormal
	}
	bodyType := p.BodyType
	if bodyType == "" {
		bodyType = BodyTypeHTML
	}

	return messagePayload{
		Subject:    p.Subject,
		Importance: importance,
		Body: ItemBody{
			ContentType: bodyType,
			Content:     p.Body,
		},
		ToRecipients: makeRecipients(p.To),
		CcRecipients: makeRecipients(p.CC),
	}
}

// CreateDraft creates a draft email in the user's mailbox and returns the
// draft, including the ID needed to send it later.
func (c *Client) CreateDraft(ctx context.Context, p ComposeParams) (*Message, error) {
	var draft Message
	if err := c.do(ctx, http.MethodPost, "/me/messages", buildMessage(p), nil, &draft); err != nil {
		return nil, err
	}

	c.logger.Info("Created draft email", "draft_id", util.SafeTruncate(draft.ID, idLogLength))
	return &draft, nil
}

// SendEmailParams describes an email to send: either an existing draft by
// ID, or a from-scratch compose-and-send.
type SendEmailParams struct {
	// DraftID sends an existing draft. When set, all other fields are
	// ignored.
	DraftID string

	ComposeParams
}

// SendEmail sends an email. With DraftID set it sends that draft; otherwise
// To, Subject, and Body must all be present and the message is composed and
// sent in one request. Missing fields fail with a validation error before
// any network call.
func (c *Client) SendEmail(ctx context.Context, p SendEmailParams) error {
	if p.DraftID != "" {
		path := "/me/messages/" + url.PathEscape(p.DraftID) + "/send"
		if err := c.do(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
			return err
		}
		c.logger.Info("Sent draft email", "draft_id", util.SafeTruncate(p.DraftID, idLogLength))
		return nil
	}

	if len(p.To) == 0 || p.Subject == "" || p.Body == "" {
		return newValidationError("to, subject, and body are required when draft ID is not provided")
	}

	payload := sendMailPayload{Message: buildMessage(p.ComposeParams)}
	if err := c.do(ctx, http.MethodPost, "/me/sendMail", payload, nil, nil); err != nil {
		return err
	}

	c.logger.Info("Sent email", "recipients", len(p.To))
	return nil
}

// SearchParams describes a mailbox search.
type SearchParams struct {
	// Query is a free-text KQL query, e.g. "from:boss@example.com" or
	// "budget report". Empty lists the folder.
	Query string

	// Folder is the mail folder to search. Defaults to DefaultFolder.
	Folder string

	// Top is the maximum number of results. Defaults to 10, capped at
	// MaxSearchResults.
	Top int

	// FromDate, when set, restricts results to messages received at or
	// after it.
	FromDate time.Time
}

// SearchEmails searches the user's mailbox. Results are ordered by received
// time descending (server-side).
func (c *Client) SearchEmails(ctx context.Context, p SearchParams) ([]Message, error) {
	folder := p.Folder
	if folder == "" {
		folder = DefaultFolder
	}

	top := p.Top
	if top <= 0 {
		top = defaultSearchResults
	}
	if top > MaxSearchResults {
		top = MaxSearchResults
	}

	query := url.Values{}
	query.Set("$top", strconv.Itoa(top))
	query.Set("$orderby", "receivedDateTime DESC")
	if !p.FromDate.IsZero() {
		query.Set("$filter", "receivedDateTime ge "+p.FromDate.UTC().Format(searchDateFormat))
	}
	if p.Query != "" {
		query.Set("$search", `"`+p.Query+`"`)
	}

	var list messageList
	path := "/me/mailFolders/" + url.PathEscape(folder) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, query, &list); err != nil {
		return nil, err
	}

	c.logger.Info("Search completed", "folder", folder, "found", len(list.Value))
	return list.Value, nil
}

// ReadEmail retrieves one message by ID with its full content.
func (c *Client) ReadEmail(ctx context.Context, messageID string) (*Message, error) {
	if messageID == "" {
		return nil, newValidationError("message ID is required")
	}

	var msg Message
	path := "/me/messages/" + url.PathEscape(messageID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
