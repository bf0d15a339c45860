package hubspot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/services"
)

var dealProperties = []string{"dealname", "amount", "dealstage", "hs_next_step", "next_steps_date", "pipeline"}

const defaultPipeline = "default"

// DealUpdate lists the deal properties that may be patched. Empty fields are
// left untouched.
type DealUpdate struct {
	Stage         string
	NextStep      string
	NextStepsDate time.Time
	Amount        string
}

func (u DealUpdate) properties() map[string]string {
	props := map[string]string{}
	if u.Stage != "" {
		props["dealstage"] = u.Stage
	}
	if u.NextStep != "" {
		props["hs_next_step"] = u.NextStep
	}
	if !u.NextStepsDate.IsZero() {
		props["next_steps_date"] = midnightMillis(u.NextStepsDate)
	}
	if u.Amount != "" {
		props["amount"] = u.Amount
	}
	return props
}

// NewDeal is the payload for creating a deal linked to a contact.
type NewDeal struct {
	Name          string
	Stage         string
	NextStep      string
	NextStepsDate time.Time
	ContactID     string
}

// ContactDeals returns the deals associated with a contact, with stage labels
// resolved.
func (c *Client) ContactDeals(ctx context.Context, contactID string) ([]Deal, error) {
	ids, err := c.associatedIDs(ctx, "contacts", contactID, "deals")
	if err != nil {
		return nil, err
	}
	stages := stageLabels{}
	deals := make([]Deal, 0, len(ids))
	for _, id := range ids {
		deal, err := c.GetDeal(ctx, id)
		if err != nil {
			logging.WarnWithContext(c.logger, "deal fetch failed", "hubspot_deal_fetch_failed",
				logging.String("deal_id", id),
				logging.Error(err),
				logging.String(logging.FieldImpact, "deal omitted from contact deals"),
			)
			continue
		}
		deal.StageLabel = c.stageLabel(ctx, stages, deal.Stage, deal.Pipeline)
		deals = append(deals, deal)
	}
	return deals, nil
}

// GetDeal fetches one deal by id.
func (c *Client) GetDeal(ctx context.Context, dealID string) (Deal, error) {
	var obj object
	query := url.Values{"properties": {strings.Join(dealProperties, ",")}}
	if err := c.get(ctx, "/crm/v3/objects/deals/"+url.PathEscape(dealID), query, &obj); err != nil {
		return Deal{}, err
	}
	return dealFromObject(obj), nil
}

// SearchDeals finds deals whose name contains the given token.
func (c *Client) SearchDeals(ctx context.Context, name string) ([]Deal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "hubspot", "search deals", "deal name cannot be empty", nil)
	}
	req := searchRequest{
		FilterGroups: []filterGroup{{Filters: []filter{{PropertyName: "dealname", Operator: "CONTAINS_TOKEN", Value: name}}}},
		Properties:   dealProperties,
		Limit:        searchLimit,
	}
	return c.searchDeals(ctx, req)
}

// UpdateDeal patches the non-empty fields of update onto a deal.
func (c *Client) UpdateDeal(ctx context.Context, dealID string, update DealUpdate) error {
	props := update.properties()
	if len(props) == 0 {
		return nil
	}
	return c.patch(ctx, "/crm/v3/objects/deals/"+url.PathEscape(dealID), map[string]any{"properties": props}, nil)
}

// CreateDeal creates a deal, optionally associating it with a contact.
func (c *Client) CreateDeal(ctx context.Context, deal NewDeal) (string, error) {
	if strings.TrimSpace(deal.Name) == "" {
		return "", services.Wrap(services.ErrValidation, "hubspot", "create deal", "deal name required", nil)
	}
	props := map[string]string{"dealname": deal.Name}
	if deal.Stage != "" {
		props["dealstage"] = deal.Stage
	}
	if deal.NextStep != "" {
		props["hs_next_step"] = deal.NextStep
	}
	if !deal.NextStepsDate.IsZero() {
		props["next_steps_date"] = midnightMillis(deal.NextStepsDate)
	}
	body := map[string]any{"properties": props}
	if deal.ContactID != "" {
		body["associations"] = []association{newAssociation(deal.ContactID, assocDealToContact)}
	}
	var created object
	if err := c.post(ctx, "/crm/v3/objects/deals", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// DealsWithNextStep returns every deal that has a next-step date set.
func (c *Client) DealsWithNextStep(ctx context.Context) ([]Deal, error) {
	req := searchRequest{
		FilterGroups: []filterGroup{{Filters: []filter{{PropertyName: "next_steps_date", Operator: "HAS_PROPERTY"}}}},
		Properties:   dealProperties,
		Limit:        searchLimit,
	}
	return c.searchDeals(ctx, req)
}

func (c *Client) searchDeals(ctx context.Context, req searchRequest) ([]Deal, error) {
	var resp searchResponse
	if err := c.post(ctx, "/crm/v3/objects/deals/search", req, &resp); err != nil {
		return nil, err
	}
	deals := make([]Deal, 0, len(resp.Results))
	for _, obj := range resp.Results {
		deals = append(deals, dealFromObject(obj))
	}
	return deals, nil
}

// DealContacts returns the contacts associated with a deal. Contacts that
// fail to load are skipped.
func (c *Client) DealContacts(ctx context.Context, dealID string) ([]Contact, error) {
	ids, err := c.associatedIDs(ctx, "deals", dealID, "contacts")
	if err != nil {
		return nil, err
	}
	contacts := make([]Contact, 0, len(ids))
	for _, id := range ids {
		contact, err := c.GetContact(ctx, id)
		if err != nil {
			c.logger.Debug("deal contact fetch failed", logging.String("contact_id", id), logging.Error(err))
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// stageLabels holds pipeline stage labels fetched during one call, keyed
// by pipeline. A nil entry records a failed lookup.
type stageLabels map[string]map[string]string

// StageLabel resolves a stage id to its display label, falling back to the
// id itself when the pipeline cannot be read. Every call reads the pipeline
// afresh.
func (c *Client) StageLabel(ctx context.Context, stageID, pipeline string) string {
	return c.stageLabel(ctx, stageLabels{}, stageID, pipeline)
}

func (c *Client) stageLabel(ctx context.Context, seen stageLabels, stageID, pipeline string) string {
	if stageID == "" {
		return ""
	}
	if pipeline == "" {
		pipeline = defaultPipeline
	}
	labels, ok := seen[pipeline]
	if !ok {
		labels = c.pipelineStages(ctx, pipeline)
		seen[pipeline] = labels
	}
	if label := labels[stageID]; label != "" {
		return label
	}
	return stageID
}

func (c *Client) pipelineStages(ctx context.Context, pipeline string) map[string]string {
	var resp struct {
		Stages []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"stages"`
	}
	if err := c.get(ctx, "/crm/v3/pipelines/deals/"+url.PathEscape(pipeline), nil, &resp); err != nil {
		c.logger.Debug("pipeline lookup failed", logging.String("pipeline", pipeline), logging.Error(err))
		return nil
	}
	labels := make(map[string]string, len(resp.Stages))
	for _, stage := range resp.Stages {
		labels[stage.ID] = stage.Label
	}
	return labels
}

func (c *Client) associatedIDs(ctx context.Context, fromType, fromID, toType string) ([]string, error) {
	var resp assocResult
	path := fmt.Sprintf("/crm/v3/objects/%s/%s/associations/%s", fromType, url.PathEscape(fromID), toType)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return object{Associations: map[string]assocResult{toType: resp}}.associationIDs(toType), nil
}

// midnightMillis renders UTC midnight of t's calendar day as epoch ms.
func midnightMillis(t time.Time) string {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return strconv.FormatInt(day.UnixMilli(), 10)
}
