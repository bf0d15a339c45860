package hubspot

import (
	"context"
	"strconv"
	"strings"

	"dealflow/internal/logging"
	"dealflow/internal/services"
)

const (
	noteBodyLimit    = 20000
	noteBodyTruncate = 19950
	noteTruncatedTag = "<br><br><em>[Note truncated]</em>"
)

// NoteInput is a call note to log on the CRM timeline.
type NoteInput struct {
	Summary   string
	Notes     string
	ContactID string
	DealID    string
}

// NoteBody renders the HTML body stored on a note.
func NoteBody(summary, notes string) string {
	body := "<strong>Summary:</strong><br>" + htmlLines(summary) +
		"<br><br><strong>Full Notes:</strong><br>" + htmlLines(notes)
	if len(body) > noteBodyLimit {
		body = body[:noteBodyTruncate] + noteTruncatedTag
	}
	return body
}

func htmlLines(text string) string {
	return strings.ReplaceAll(text, "\n", "<br>")
}

// CreateNote logs a note associated with a contact, a deal, or both.
func (c *Client) CreateNote(ctx context.Context, input NoteInput) (string, error) {
	if input.ContactID == "" && input.DealID == "" {
		return "", services.Wrap(services.ErrValidation, "hubspot", "create note", "contact or deal association required", nil)
	}
	var assocs []association
	if input.ContactID != "" {
		assocs = append(assocs, newAssociation(input.ContactID, assocNoteToContact))
	}
	if input.DealID != "" {
		assocs = append(assocs, newAssociation(input.DealID, assocNoteToDeal))
	}
	body := map[string]any{
		"properties": map[string]string{
			"hs_timestamp": strconv.FormatInt(c.now().UnixMilli(), 10),
			"hs_note_body": NoteBody(input.Summary, input.Notes),
		},
		"associations": assocs,
	}
	var created object
	if err := c.post(ctx, "/crm/v3/objects/notes", body, &created); err != nil {
		return "", err
	}
	c.logger.Info("note created",
		logging.String("note_id", created.ID),
		logging.String("contact_id", input.ContactID),
		logging.String(logging.FieldEventType, "hubspot_note_created"),
	)
	return created.ID, nil
}
