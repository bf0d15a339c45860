package reminders

import (
	"strings"
	"time"

	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
)

// DealEntry is a deal with the context the digest shows for it.
type DealEntry struct {
	Deal     hubspot.Deal
	Contacts []string
}

// Report is one scan's classified obligations before delivery.
type Report struct {
	Now      time.Time
	Tomorrow time.Time

	DealsTomorrow []DealEntry
	TasksTomorrow []hubspot.Task
	TodosTomorrow []notion.Todo

	OverdueDeals []DealEntry
	OverdueTasks []hubspot.Task
	OverdueTodos []notion.Todo

	// Errors lists source and enrichment failures that did not stop the scan.
	Errors []string
}

// TotalTomorrow counts items due on the target date.
func (r Report) TotalTomorrow() int {
	return len(r.DealsTomorrow) + len(r.TasksTomorrow) + len(r.TodosTomorrow)
}

// TotalOverdue counts items due before today.
func (r Report) TotalOverdue() int {
	return len(r.OverdueDeals) + len(r.OverdueTasks) + len(r.OverdueTodos)
}

// Total counts every item in the report.
func (r Report) Total() int {
	return r.TotalTomorrow() + r.TotalOverdue()
}

// contactLine renders "Name (Title) at Company", falling back to the email
// address and then "Unknown" when the contact has no name.
func contactLine(c hubspot.Contact) string {
	name := c.FullName()
	if name == "" {
		name = strings.TrimSpace(c.Email)
	}
	if name == "" {
		name = "Unknown"
	}
	if c.JobTitle != "" {
		name += " (" + c.JobTitle + ")"
	}
	if c.Company != "" {
		name += " at " + c.Company
	}
	return name
}
