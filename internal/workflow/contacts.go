package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dealflow/internal/logging"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
)

// CreateContactRequest is the payload for CreateContact.
type CreateContactRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Company   string `json:"company"`
}

// CreateContactResult describes the contact a create resolved to.
type CreateContactResult struct {
	Success       bool             `json:"success"`
	AlreadyExists bool             `json:"already_exists,omitempty"`
	ContactID     string           `json:"contact_id"`
	Contact       *hubspot.Contact `json:"contact,omitempty"`
	Message       string           `json:"message"`
}

// CreateContact creates a CRM contact. When the email is already taken the
// existing contact is returned instead.
func (s *Service) CreateContact(ctx context.Context, req CreateContactRequest) (CreateContactResult, error) {
	ctx = services.WithOperation(ctx, "create_contact")
	logger := logging.WithContext(ctx, s.logger)

	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return CreateContactResult{}, services.Invalid("Missing required fields: email, firstname, lastname")
	}
	if s.crm == nil {
		return CreateContactResult{}, services.Wrap(services.ErrConfiguration, "workflow", "create contact", "crm not configured", nil)
	}
	logger.Info("creating contact", logging.String("email", req.Email))

	id, err := s.crm.CreateContact(ctx, hubspot.NewContact{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   strings.TrimSpace(req.Company),
	})
	if err == nil {
		return CreateContactResult{Success: true, ContactID: id, Message: "Contact created successfully"}, nil
	}

	var exists *hubspot.AlreadyExistsError
	if !errors.As(err, &exists) || exists.ExistingID == "" {
		return CreateContactResult{}, err
	}
	logger.Info("contact exists; using existing record", logging.String("contact_id", exists.ExistingID))

	found, searchErr := s.crm.SearchContacts(ctx, req.Email)
	if searchErr != nil || len(found) == 0 {
		return CreateContactResult{
			Success:       true,
			AlreadyExists: true,
			ContactID:     exists.ExistingID,
			Message:       "Contact already exists. Using existing contact.",
		}, nil
	}
	existing := found[0]
	return CreateContactResult{
		Success:       true,
		AlreadyExists: true,
		ContactID:     existing.ID,
		Contact:       &existing,
		Message:       fmt.Sprintf("Contact already exists. Using existing contact: %s %s", existing.FirstName, existing.LastName),
	}, nil
}

// SelectContactResult confirms a contact choice.
type SelectContactResult struct {
	Success   bool   `json:"success"`
	ContactID string `json:"contact_id"`
	Message   string `json:"message"`
}

// SelectContact confirms the contact a user picked from several matches.
func (s *Service) SelectContact(ctx context.Context, contactID string) (SelectContactResult, error) {
	contactID = strings.TrimSpace(contactID)
	if contactID == "" {
		return SelectContactResult{}, services.Invalid("No contact_id provided")
	}
	logging.WithContext(ctx, s.logger).Info("contact selected", logging.String("contact_id", contactID))
	return SelectContactResult{Success: true, ContactID: contactID, Message: "Contact selection confirmed"}, nil
}

// SearchContacts re-runs a CRM contact search with a user query.
func (s *Service) SearchContacts(ctx context.Context, query string) ([]hubspot.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Invalid("Query cannot be empty")
	}
	if s.crm == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "search contacts", "crm not configured", nil)
	}
	contacts, err := s.crm.SearchContacts(ctx, query)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []hubspot.Contact{}
	}
	return contacts, nil
}

// SearchInvestors finds investor preference pages by company name.
func (s *Service) SearchInvestors(ctx context.Context, company string) ([]notion.Investor, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, services.Invalid("Company name cannot be empty")
	}
	if s.kb == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "search investors", "knowledge base not configured", nil)
	}
	investors, err := s.kb.SearchInvestors(ctx, company)
	if err != nil {
		return nil, err
	}
	if investors == nil {
		investors = []notion.Investor{}
	}
	return investors, nil
}
