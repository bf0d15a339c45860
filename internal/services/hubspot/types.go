package hubspot

import "strings"

// Contact is a HubSpot contact as shown to users.
type Contact struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Company   string `json:"company"`
	JobTitle  string `json:"jobtitle"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Deal is a HubSpot deal with its next-step fields.
type Deal struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	Stage         string `json:"stage"`
	StageLabel    string `json:"stage_label,omitempty"`
	NextStep      string `json:"next_step"`
	NextStepsDate string `json:"next_step_date"`
	Pipeline      string `json:"pipeline,omitempty"`
}

// DueValue returns the raw next_steps_date (ms epoch or YYYY-MM-DD).
func (d Deal) DueValue() string {
	return d.NextStepsDate
}

// AssociatedObject is a record linked to a task.
type AssociatedObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is an open HubSpot task with resolved association names.
type Task struct {
	ID        string             `json:"id"`
	Subject   string             `json:"subject"`
	Body      string             `json:"body"`
	Status    string             `json:"status"`
	Priority  string             `json:"priority"`
	Timestamp string             `json:"due"`
	OwnerID   string             `json:"owner_id,omitempty"`
	Contacts  []AssociatedObject `json:"associated_contacts"`
	Companies []AssociatedObject `json:"associated_companies"`
	Deals     []AssociatedObject `json:"associated_deals"`
}

// DueValue returns the raw hs_timestamp.
func (t Task) DueValue() string {
	return t.Timestamp
}

// EngagementMetadata carries the type-specific fields of an engagement.
type EngagementMetadata struct {
	Body                 string `json:"body"`
	Text                 string `json:"text"`
	Disposition          string `json:"disposition"`
	Title                string `json:"title"`
	InternalMeetingNotes string `json:"internalMeetingNotes"`
	Subject              string `json:"subject"`
}

// EngagementRecord is one timeline entry from the legacy engagements API.
type EngagementRecord struct {
	ID        int64
	Type      string
	CreatedAt int64
	Metadata  EngagementMetadata
}

type object struct {
	ID           string                 `json:"id"`
	Properties   map[string]*string     `json:"properties"`
	Associations map[string]assocResult `json:"associations"`
}

type assocResult struct {
	Results []assocRef `json:"results"`
}

type assocRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type searchResponse struct {
	Total   int      `json:"total"`
	Results []object `json:"results"`
}

func (o object) prop(name string) string {
	if o.Properties == nil {
		return ""
	}
	if v := o.Properties[name]; v != nil {
		return strings.TrimSpace(*v)
	}
	return ""
}

func (o object) propOr(name, fallback string) string {
	if v := o.prop(name); v != "" {
		return v
	}
	return fallback
}

func (o object) associationIDs(kind string) []string {
	refs := o.Associations[kind].Results
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	return ids
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value,omitempty"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties"`
	Associations []string      `json:"associations,omitempty"`
	Limit        int           `json:"limit"`
}

type associationType struct {
	AssociationCategory string `json:"associationCategory"`
	AssociationTypeID   int    `json:"associationTypeId"`
}

type associationTarget struct {
	ID string `json:"id"`
}

type association struct {
	To    associationTarget `json:"to"`
	Types []associationType `json:"types"`
}

func newAssociation(id string, typeID int) association {
	return association{
		To:    associationTarget{ID: id},
		Types: []associationType{{AssociationCategory: "HUBSPOT_DEFINED", AssociationTypeID: typeID}},
	}
}

// HubSpot-defined association type ids.
const (
	assocNoteToContact = 202
	assocNoteToDeal    = 214
	assocDealToContact = 3
	assocTaskToContact = 204
)

func contactFromObject(o object) Contact {
	return Contact{
		ID:        o.ID,
		Email:     o.prop("email"),
		FirstName: o.prop("firstname"),
		LastName:  o.prop("lastname"),
		Company:   o.prop("company"),
		JobTitle:  o.prop("jobtitle"),
	}
}

func dealFromObject(o object) Deal {
	return Deal{
		ID:            o.ID,
		Name:          o.prop("dealname"),
		Amount:        o.prop("amount"),
		Stage:         o.prop("dealstage"),
		NextStep:      o.prop("hs_next_step"),
		NextStepsDate: o.prop("next_steps_date"),
		Pipeline:      o.prop("pipeline"),
	}
}
