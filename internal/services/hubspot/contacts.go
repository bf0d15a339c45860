package hubspot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"dealflow/internal/logging"
	"dealflow/internal/services"
)

var contactProperties = []string{"email", "firstname", "lastname", "company", "jobtitle"}

var existingIDPattern = regexp.MustCompile(`Existing ID:\s*(\d+)`)

// AlreadyExistsError reports a contact create that collided with an existing
// record. ExistingID is empty when HubSpot did not name the duplicate.
type AlreadyExistsError struct {
	ExistingID string
	Message    string
}

func (e *AlreadyExistsError) Error() string {
	if e.ExistingID != "" {
		return fmt.Sprintf("contact already exists (id %s)", e.ExistingID)
	}
	return "contact already exists"
}

// NewContact is the payload for creating a contact.
type NewContact struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Company   string `json:"company,omitempty"`
}

// SearchContacts finds contacts by email or by name/company tokens. Results
// are deduplicated by id in response order.
func (c *Client) SearchContacts(ctx context.Context, query string) ([]Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "hubspot", "search contacts", "query cannot be empty", nil)
	}
	req := searchRequest{
		FilterGroups: contactFilterGroups(query),
		Properties:   contactProperties,
		Limit:        contactSearchLimit,
	}
	var resp searchResponse
	if err := c.post(ctx, "/crm/v3/objects/contacts/search", req, &resp); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(resp.Results))
	contacts := make([]Contact, 0, len(resp.Results))
	for _, obj := range resp.Results {
		if _, dup := seen[obj.ID]; dup {
			continue
		}
		seen[obj.ID] = struct{}{}
		contacts = append(contacts, contactFromObject(obj))
	}
	c.logger.Debug("contact search complete",
		logging.String("query", query),
		logging.Int("count", len(contacts)),
	)
	return contacts, nil
}

func contactFilterGroups(query string) []filterGroup {
	if strings.Contains(query, "@") {
		return []filterGroup{{Filters: []filter{{PropertyName: "email", Operator: "EQ", Value: query}}}}
	}
	tokens := strings.Fields(query)
	if len(tokens) >= 2 {
		first := tokens[0]
		last := strings.Join(tokens[1:], " ")
		return []filterGroup{
			{Filters: []filter{
				{PropertyName: "firstname", Operator: "EQ", Value: first},
				{PropertyName: "lastname", Operator: "EQ", Value: last},
			}},
			{Filters: []filter{
				{PropertyName: "firstname", Operator: "CONTAINS_TOKEN", Value: first},
				{PropertyName: "lastname", Operator: "CONTAINS_TOKEN", Value: last},
			}},
			{Filters: []filter{{PropertyName: "firstname", Operator: "CONTAINS_TOKEN", Value: query}}},
			{Filters: []filter{{PropertyName: "lastname", Operator: "CONTAINS_TOKEN", Value: query}}},
			{Filters: []filter{{PropertyName: "company", Operator: "CONTAINS_TOKEN", Value: query}}},
		}
	}
	return []filterGroup{
		{Filters: []filter{{PropertyName: "firstname", Operator: "CONTAINS_TOKEN", Value: query}}},
		{Filters: []filter{{PropertyName: "lastname", Operator: "CONTAINS_TOKEN", Value: query}}},
	}
}

// CreateContact creates a contact and returns its id. A duplicate email
// yields *AlreadyExistsError.
func (c *Client) CreateContact(ctx context.Context, contact NewContact) (string, error) {
	if strings.TrimSpace(contact.Email) == "" || strings.TrimSpace(contact.FirstName) == "" || strings.TrimSpace(contact.LastName) == "" {
		return "", services.Wrap(services.ErrValidation, "hubspot", "create contact", "email, firstname and lastname are required", nil)
	}
	body := map[string]any{"properties": contact}
	var created object
	err := c.post(ctx, "/crm/v3/objects/contacts", body, &created)
	if err != nil {
		var httpErr *services.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusConflict {
			return "", conflictError(httpErr.Body)
		}
		return "", err
	}
	c.logger.Info("contact created",
		logging.String("contact_id", created.ID),
		logging.String(logging.FieldEventType, "hubspot_contact_created"),
	)
	return created.ID, nil
}

func conflictError(body string) *AlreadyExistsError {
	out := &AlreadyExistsError{Message: body}
	if m := existingIDPattern.FindStringSubmatch(body); len(m) == 2 {
		out.ExistingID = m[1]
	}
	return out
}

// GetContact fetches one contact by id.
func (c *Client) GetContact(ctx context.Context, contactID string) (Contact, error) {
	var obj object
	query := url.Values{"properties": {strings.Join(contactProperties, ",")}}
	if err := c.get(ctx, "/crm/v3/objects/contacts/"+url.PathEscape(contactID), query, &obj); err != nil {
		return Contact{}, err
	}
	return contactFromObject(obj), nil
}
