package hubspot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/services"
)

var taskProperties = []string{"hs_task_subject", "hs_task_body", "hs_task_status", "hs_task_priority", "hs_timestamp", "hubspot_owner_id"}

var taskAssociationTypes = []string{"contacts", "companies", "deals"}

const followUpTaskBody = "Follow-up task created automatically from call notes"

// CreateFollowUpTask creates an open task due at UTC midnight of the day
// dueInDays from now, optionally associated with a contact.
func (c *Client) CreateFollowUpTask(ctx context.Context, contactID, subject string, dueInDays int) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", services.Wrap(services.ErrValidation, "hubspot", "create task", "task subject required", nil)
	}
	due := c.now().UTC().AddDate(0, 0, dueInDays)
	body := map[string]any{
		"properties": map[string]string{
			"hs_task_subject":  subject,
			"hs_task_body":     followUpTaskBody,
			"hs_task_status":   "NOT_STARTED",
			"hs_task_priority": "MEDIUM",
			"hs_timestamp":     midnightMillis(due),
		},
	}
	if contactID != "" {
		body["associations"] = []association{newAssociation(contactID, assocTaskToContact)}
	}
	var created object
	if err := c.post(ctx, "/crm/v3/objects/tasks", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// TasksDueBetween returns open tasks with start <= due < end.
func (c *Client) TasksDueBetween(ctx context.Context, start, end time.Time) ([]Task, error) {
	filters := []filter{
		{PropertyName: "hs_timestamp", Operator: "GTE", Value: millis(start)},
		{PropertyName: "hs_timestamp", Operator: "LT", Value: millis(end)},
		{PropertyName: "hs_task_status", Operator: "NEQ", Value: "COMPLETED"},
	}
	return c.searchTasks(ctx, filters)
}

// OverdueTasks returns open tasks due before now.
func (c *Client) OverdueTasks(ctx context.Context, now time.Time) ([]Task, error) {
	filters := []filter{
		{PropertyName: "hs_timestamp", Operator: "LT", Value: millis(now)},
		{PropertyName: "hs_task_status", Operator: "NEQ", Value: "COMPLETED"},
	}
	return c.searchTasks(ctx, filters)
}

func (c *Client) searchTasks(ctx context.Context, filters []filter) ([]Task, error) {
	req := searchRequest{
		FilterGroups: []filterGroup{{Filters: filters}},
		Properties:   taskProperties,
		Associations: taskAssociationTypes,
		Limit:        searchLimit,
	}
	var resp searchResponse
	if err := c.post(ctx, "/crm/v3/objects/tasks/search", req, &resp); err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(resp.Results))
	for _, obj := range resp.Results {
		task := Task{
			ID:        obj.ID,
			Subject:   obj.propOr("hs_task_subject", "Untitled Task"),
			Body:      obj.prop("hs_task_body"),
			Status:    obj.propOr("hs_task_status", "NOT_STARTED"),
			Priority:  obj.propOr("hs_task_priority", "NONE"),
			Timestamp: obj.prop("hs_timestamp"),
			OwnerID:   obj.prop("hubspot_owner_id"),
		}
		task.Contacts = c.resolveNames(ctx, "contacts", obj.associationIDs("contacts"))
		task.Companies = c.resolveNames(ctx, "companies", obj.associationIDs("companies"))
		task.Deals = c.resolveNames(ctx, "deals", obj.associationIDs("deals"))
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// resolveNames batch-reads display names for associated records. Ids that
// cannot be resolved keep a generic "Contact 123" style label.
func (c *Client) resolveNames(ctx context.Context, objectType string, ids []string) []AssociatedObject {
	if len(ids) == 0 {
		return nil
	}
	var props []string
	switch objectType {
	case "contacts":
		props = []string{"firstname", "lastname", "email"}
	case "companies":
		props = []string{"name"}
	default:
		props = []string{"dealname"}
	}
	inputs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		inputs = append(inputs, map[string]string{"id": id})
	}
	var resp searchResponse
	err := c.post(ctx, "/crm/v3/objects/"+objectType+"/batch/read", map[string]any{
		"properties": props,
		"inputs":     inputs,
	}, &resp)
	names := map[string]string{}
	if err != nil {
		c.logger.Debug("association name lookup failed",
			logging.String("object_type", objectType),
			logging.Error(err),
		)
	}
	for _, obj := range resp.Results {
		names[obj.ID] = displayName(objectType, obj)
	}
	out := make([]AssociatedObject, 0, len(ids))
	for _, id := range ids {
		name := names[id]
		if name == "" {
			name = fallbackLabel(objectType) + " " + id
		}
		out = append(out, AssociatedObject{ID: id, Name: name})
	}
	return out
}

func displayName(objectType string, obj object) string {
	switch objectType {
	case "contacts":
		if name := strings.TrimSpace(obj.prop("firstname") + " " + obj.prop("lastname")); name != "" {
			return name
		}
		return obj.prop("email")
	case "companies":
		return obj.prop("name")
	default:
		return obj.prop("dealname")
	}
}

func fallbackLabel(objectType string) string {
	switch objectType {
	case "contacts":
		return "Contact"
	case "companies":
		return "Company"
	default:
		return "Deal"
	}
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
