package reminders

import (
	"fmt"
	"strings"
)

// SubjectDateLayout is the long date form used in the subject and header.
const SubjectDateLayout = "January 02, 2006"

// Subject builds the digest subject line. Only non-zero counts are listed.
//
//	📅 Daily Reminder for March 15, 2024 - ⚠️ 2 OVERDUE (1 Deal(s), 1 Task(s)) | 1 Tomorrow (1 To-Do(s))
func Subject(r Report) string {
	var parts []string
	if n := r.TotalOverdue(); n > 0 {
		parts = append(parts, fmt.Sprintf("⚠️ %d OVERDUE (%s)", n,
			countParts(len(r.OverdueDeals), len(r.OverdueTasks), len(r.OverdueTodos))))
	}
	if n := r.TotalTomorrow(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d Tomorrow (%s)", n,
			countParts(len(r.DealsTomorrow), len(r.TasksTomorrow), len(r.TodosTomorrow))))
	}
	return fmt.Sprintf("📅 Daily Reminder for %s - %s", r.Tomorrow.UTC().Format(SubjectDateLayout), strings.Join(parts, " | "))
}

func countParts(deals, tasks, todos int) string {
	var parts []string
	if deals > 0 {
		parts = append(parts, fmt.Sprintf("%d Deal(s)", deals))
	}
	if tasks > 0 {
		parts = append(parts, fmt.Sprintf("%d Task(s)", tasks))
	}
	if todos > 0 {
		parts = append(parts, fmt.Sprintf("%d To-Do(s)", todos))
	}
	return strings.Join(parts, ", ")
}
