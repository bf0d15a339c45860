package reminders

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
)

//go:embed digest.html.tmpl
var digestTemplateText string

var digestTemplate = template.Must(template.New("digest").Parse(digestTemplateText))

// Links carries the deep-link settings for the digest.
type Links struct {
	// PortalID enables HubSpot record links when set.
	PortalID string
	// TodosURL overrides the link to the Notion to-do database.
	TodosURL string
	// TodosDBID is used to build the to-do database link when TodosURL is empty.
	TodosDBID string
}

type digestView struct {
	Date            string
	HubSpotTasksURL string
	NotionTodosURL  string
	TotalOverdue    int
	TotalTomorrow   int
	OverdueDeals    []dealView
	OverdueTasks    []taskView
	OverdueTodos    []todoView
	TomorrowDeals   []dealView
	TomorrowTasks   []taskView
	TomorrowTodos   []todoView
}

type dealView struct {
	Name     string
	URL      string
	Stage    string
	NextStep string
	Due      string
	Amount   string
	Contacts []string
	Overdue  bool
}

type linkView struct {
	Name string
	URL  string
}

type taskView struct {
	Subject   string
	URL       string
	Body      string
	Due       string
	Status    string
	High      bool
	Contacts  []linkView
	Companies []linkView
	Deals     []linkView
	Overdue   bool
}

type todoView struct {
	Name     string
	URL      string
	NextStep string
	Due      string
	Overdue  bool
}

// RenderDigest renders the HTML email body: overdue items first, then items
// due tomorrow.
func RenderDigest(r Report, links Links) (string, error) {
	view := digestView{
		Date:          r.Now.UTC().Format(SubjectDateLayout),
		TotalOverdue:  r.TotalOverdue(),
		TotalTomorrow: r.TotalTomorrow(),
		OverdueDeals:  dealViews(r.OverdueDeals, links, true),
		OverdueTasks:  taskViews(r.OverdueTasks, links, true),
		OverdueTodos:  todoViews(r.OverdueTodos, true),
		TomorrowDeals: dealViews(r.DealsTomorrow, links, false),
		TomorrowTasks: taskViews(r.TasksTomorrow, links, false),
		TomorrowTodos: todoViews(r.TodosTomorrow, false),
	}
	if links.PortalID != "" {
		view.HubSpotTasksURL = fmt.Sprintf("https://app.hubspot.com/tasks/%s/view/all", links.PortalID)
	}
	switch {
	case links.TodosURL != "":
		view.NotionTodosURL = links.TodosURL
	case links.TodosDBID != "":
		view.NotionTodosURL = "https://www.notion.so/" + strings.ReplaceAll(links.TodosDBID, "-", "")
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func dealViews(entries []DealEntry, links Links, overdue bool) []dealView {
	out := make([]dealView, 0, len(entries))
	for _, entry := range entries {
		d := entry.Deal
		view := dealView{
			Name:     valueOr(d.Name, "Unnamed Deal"),
			Stage:    valueOr(valueOr(d.StageLabel, d.Stage), "Unknown"),
			NextStep: valueOr(d.NextStep, "No next step specified"),
			Due:      valueOr(formatDueDate(d.NextStepsDate), "N/A"),
			Amount:   "N/A",
			Contacts: entry.Contacts,
			Overdue:  overdue,
		}
		if amount := strings.TrimSpace(d.Amount); amount != "" {
			view.Amount = "$" + amount
		}
		if links.PortalID != "" && d.ID != "" {
			view.URL = fmt.Sprintf("https://app.hubspot.com/contacts/%s/deal/%s", links.PortalID, d.ID)
		}
		out = append(out, view)
	}
	return out
}

func taskViews(tasks []hubspot.Task, links Links, overdue bool) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		view := taskView{
			Subject:   valueOr(t.Subject, "Untitled Task"),
			Body:      strings.TrimSpace(t.Body),
			Due:       valueOr(formatDueTimestamp(t.Timestamp), "N/A"),
			Status:    valueOr(t.Status, "NOT_STARTED"),
			High:      strings.EqualFold(t.Priority, "HIGH"),
			Contacts:  recordLinks(t.Contacts, links.PortalID, "0-1"),
			Companies: recordLinks(t.Companies, links.PortalID, "0-2"),
			Deals:     recordLinks(t.Deals, links.PortalID, "0-3"),
			Overdue:   overdue,
		}
		if links.PortalID != "" && t.ID != "" {
			if len(t.Contacts) > 0 {
				view.URL = fmt.Sprintf("https://app.hubspot.com/contacts/%s/record/0-1/%s?taskId=%s", links.PortalID, t.Contacts[0].ID, t.ID)
			} else {
				view.URL = fmt.Sprintf("https://app.hubspot.com/contacts/%s/task/%s", links.PortalID, t.ID)
			}
		}
		out = append(out, view)
	}
	return out
}

// recordLinks maps associated records to HubSpot record pages. objectType is
// the HubSpot object type id: 0-1 contacts, 0-2 companies, 0-3 deals.
func recordLinks(objects []hubspot.AssociatedObject, portalID, objectType string) []linkView {
	if len(objects) == 0 {
		return nil
	}
	out := make([]linkView, 0, len(objects))
	for _, obj := range objects {
		link := linkView{Name: valueOr(obj.Name, obj.ID)}
		if portalID != "" && obj.ID != "" {
			link.URL = fmt.Sprintf("https://app.hubspot.com/contacts/%s/record/%s/%s", portalID, objectType, obj.ID)
		}
		out = append(out, link)
	}
	return out
}

func todoViews(todos []notion.Todo, overdue bool) []todoView {
	out := make([]todoView, 0, len(todos))
	for _, t := range todos {
		out = append(out, todoView{
			Name:     valueOr(t.TaskName, "Untitled"),
			URL:      t.URL,
			NextStep: strings.TrimSpace(t.NextStep),
			Due:      valueOr(formatDueDate(t.DueDate), "N/A"),
			Overdue:  overdue,
		})
	}
	return out
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
