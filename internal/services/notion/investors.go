package notion

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"dealflow/internal/logging"
	"dealflow/internal/preferences"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
)

// Investor is a page in the investor preference database.
type Investor struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	URL            string             `json:"url,omitempty"`
	PrimaryContact string             `json:"primary_contact,omitempty"`
	HubSpotLink    string             `json:"hubspot_link,omitempty"`
	Preferences    preferences.Record `json:"preferences"`
}

// InvestorUpdate carries the fields written on create or update.
type InvestorUpdate struct {
	Preferences      preferences.Record
	PrimaryContact   string
	HubSpotContactID string
}

// SearchInvestors finds investor pages whose name contains name.
func (c *Client) SearchInvestors(ctx context.Context, name string) ([]Investor, error) {
	if err := c.requireInvestorDB("search investors"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "notion", "search investors", "company name cannot be empty", nil)
	}
	body := map[string]any{
		"filter": map[string]any{
			"property":  propInvestorName,
			"rich_text": map[string]string{"contains": name},
		},
	}
	var resp queryResponse
	path := "/data_sources/" + url.PathEscape(c.cfg.InvestorDBID) + "/query"
	if err := c.doPages(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	investors := make([]Investor, 0, len(resp.Results))
	for _, p := range resp.Results {
		investors = append(investors, c.investorFromPage(p))
	}
	c.logger.Info("investor search complete",
		logging.String("company", name),
		logging.Int("count", len(investors)),
	)
	return investors, nil
}

// GetInvestor loads one investor page.
func (c *Client) GetInvestor(ctx context.Context, pageID string) (Investor, error) {
	p, err := c.getPage(ctx, pageID)
	if err != nil {
		return Investor{}, err
	}
	return c.investorFromPage(p), nil
}

// UpdateInvestor merges update into the stored page and returns the merged
// preference record. Only categories named by the update are written.
func (c *Client) UpdateInvestor(ctx context.Context, pageID string, update InvestorUpdate) (preferences.Record, error) {
	p, err := c.getPage(ctx, pageID)
	if err != nil {
		return preferences.Record{}, err
	}
	existing := c.merger.ValidateRecord(preferenceMap(c.merger.Vocabulary(), p.Properties))
	merged := c.merger.Merge(existing, update.Preferences)

	all := preferenceProperties(merged)
	props := make(map[string]property, update.Preferences.Len()+3)
	for _, category := range update.Preferences.Categories() {
		if prop, ok := all[string(category)]; ok {
			props[string(category)] = prop
		}
	}
	if strings.TrimSpace(update.Preferences.Notes) != "" {
		props[string(preferences.Notes)] = all[string(preferences.Notes)]
	}
	c.applyContactFields(props, update)
	if len(props) == 0 {
		return merged, nil
	}
	if err := c.doPages(ctx, http.MethodPatch, "/pages/"+url.PathEscape(pageID), map[string]any{"properties": props}, nil); err != nil {
		return preferences.Record{}, err
	}
	c.logger.Info("investor preferences updated",
		logging.String("page_id", pageID),
		logging.Int("category_count", merged.Len()),
		logging.String(logging.FieldEventType, "notion_investor_updated"),
	)
	return merged, nil
}

// CreateInvestor creates an investor page and returns its id.
func (c *Client) CreateInvestor(ctx context.Context, name string, update InvestorUpdate) (string, error) {
	if err := c.requireInvestorDB("create investor"); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "notion", "create investor", "company name cannot be empty", nil)
	}
	record := c.merger.Merge(preferences.NewRecord(), update.Preferences)
	props := preferenceProperties(record)
	props[propInvestorName] = titleProperty(name)
	c.applyContactFields(props, update)

	body := map[string]any{
		"parent":     map[string]string{"type": "database_id", "database_id": c.cfg.InvestorDBID},
		"properties": props,
	}
	var created page
	if err := c.doPages(ctx, http.MethodPost, "/pages", body, &created); err != nil {
		return "", err
	}
	c.logger.Info("investor page created",
		logging.String("page_id", created.ID),
		logging.String("company", name),
		logging.String(logging.FieldEventType, "notion_investor_created"),
	)
	return created.ID, nil
}

func (c *Client) applyContactFields(props map[string]property, update InvestorUpdate) {
	if contact := strings.TrimSpace(update.PrimaryContact); contact != "" {
		props[propPrimaryContact] = richTextProperty(contact)
	}
	if link := hubspot.ContactURL(c.cfg.HubSpotPortal, update.HubSpotContactID); link != "" {
		props[propHubSpotLink] = property{URL: &link}
	}
}

func (c *Client) getPage(ctx context.Context, pageID string) (page, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return page{}, services.Wrap(services.ErrValidation, "notion", "get page", "page id required", nil)
	}
	var p page
	if err := c.doPages(ctx, http.MethodGet, "/pages/"+url.PathEscape(pageID), nil, &p); err != nil {
		return page{}, err
	}
	return p, nil
}

func (c *Client) investorFromPage(p page) Investor {
	inv := Investor{
		ID:             p.ID,
		URL:            p.URL,
		Name:           plainText(p.Properties[propInvestorName].Title),
		PrimaryContact: plainText(p.Properties[propPrimaryContact].RichText),
		Preferences:    c.merger.ValidateRecord(preferenceMap(c.merger.Vocabulary(), p.Properties)),
	}
	if link := p.Properties[propHubSpotLink].URL; link != nil {
		inv.HubSpotLink = *link
	}
	return inv
}
