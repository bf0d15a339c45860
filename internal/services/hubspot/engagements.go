package hubspot

import (
	"context"
	"net/url"
	"strconv"

	"dealflow/internal/logging"
)

// RecentEngagements returns up to limit*2 raw engagements for a contact in
// association order. Callers sort and trim.
func (c *Client) RecentEngagements(ctx context.Context, contactID string, limit int) ([]EngagementRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var assoc struct {
		Results []struct {
			ToObjectID int64 `json:"toObjectId"`
		} `json:"results"`
	}
	path := "/crm/v4/objects/contacts/" + url.PathEscape(contactID) + "/associations/engagements"
	if err := c.get(ctx, path, nil, &assoc); err != nil {
		return nil, err
	}
	budget := limit * 2
	records := make([]EngagementRecord, 0, min(budget, len(assoc.Results)))
	for i, ref := range assoc.Results {
		if i >= budget {
			break
		}
		var resp struct {
			Engagement struct {
				ID        int64  `json:"id"`
				Type      string `json:"type"`
				CreatedAt int64  `json:"createdAt"`
			} `json:"engagement"`
			Metadata EngagementMetadata `json:"metadata"`
		}
		id := strconv.FormatInt(ref.ToObjectID, 10)
		if err := c.get(ctx, "/engagements/v1/engagements/"+id, nil, &resp); err != nil {
			c.logger.Debug("engagement fetch failed", logging.String("engagement_id", id), logging.Error(err))
			continue
		}
		records = append(records, EngagementRecord{
			ID:        ref.ToObjectID,
			Type:      resp.Engagement.Type,
			CreatedAt: resp.Engagement.CreatedAt,
			Metadata:  resp.Metadata,
		})
	}
	return records, nil
}
