package callprep

import (
	"fmt"
	"strings"
)

const briefInstructions = `---

Create a call brief with EXACTLY these 3 sections and NO other sections:

## Engagement Summary

Write a comprehensive summary paragraph (4-6 sentences) that captures:
- The history and context of the relationship
- Key developments and transitions mentioned
- Current status and any scheduled meetings
- Overall relationship trajectory

Then list ALL activities with their FULL content (do not truncate or clean up):

[Date] Type:
Complete body content exactly as provided

## Active Deals Summary

List each deal exactly as shown above with all fields:
- Deal name | Stage | Amount | Next steps

If no deals, write: No active deals.

## Professional Updates

List any LinkedIn/web information as bullet points:
- Current position and when joined
- Recent posts or activity

If no information, write: No recent web activity found.

CRITICAL RULES:
- Use ONLY markdown headers (##) for the 3 section titles
- Do NOT add any other sections besides these 3
- Do NOT clean up, format, or truncate the activity bodies - copy them EXACTLY
- Do NOT strip out email disclaimers, signatures, or HTML - include everything
- Write a detailed, comprehensive summary paragraph that tells the full story
- Keep all deal fields (name, stage, amount, next steps)`

// BriefPrompt renders the synthesis prompt for the gathered data.
func BriefPrompt(b Brief) string {
	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	line("You are an expert executive assistant preparing a concise call brief for an upcoming investor meeting.")
	line("")
	line("Based on the following information, create a brief that is scannable, actionable, and focuses on what's useful for the call.")
	line("")
	line("**CONTACT INFORMATION:**")
	line("- Name: %s", valueOr(b.Contact.Name, "Unknown"))
	line("- Company: %s", valueOr(b.Contact.Company, "Unknown"))
	line("- Title: %s", valueOr(b.Contact.JobTitle, "Not specified"))
	line("- Email: %s", valueOr(b.Contact.Email, "Not specified"))
	line("")

	if len(b.RecentActivities) > 0 {
		line("**RECENT INTERACTIONS (Notes, Meetings, Emails):**")
		line("")
		for _, a := range b.RecentActivities {
			line("[%s] %s:", a.Date, a.Type)
			line("%s", a.FullBody)
			line("")
		}
	} else {
		line("**RECENT INTERACTIONS:** None recorded")
		line("")
	}

	if len(b.LiveDeals) > 0 {
		line("**LIVE DEALS:**")
		for _, d := range b.LiveDeals {
			line("%s", dealLine(d, true))
		}
		line("")
	} else {
		line("**LIVE DEALS:** None")
		line("")
	}

	web := b.WebFindings
	if !web.LinkedIn.IsEmpty() || len(web.RecentActivity) > 0 {
		line("**LINKEDIN & WEB ACTIVITY:**")
		if pos := strings.TrimSpace(web.LinkedIn.CurrentPosition); pos != "" {
			line("- Current Position: %s", pos)
		}
		if url := strings.TrimSpace(web.LinkedIn.ProfileURL); url != "" {
			line("- Profile: %s", url)
		}
		if len(web.RecentActivity) > 0 {
			line("- Recent Posts/Activity:")
			for _, item := range firstN(web.RecentActivity, 3) {
				line("  - %s", item)
			}
		}
		line("")
	}

	sb.WriteString(briefInstructions)
	return sb.String()
}

// FallbackBrief renders a brief with the same sections as the model's,
// built only from the gathered data.
func FallbackBrief(b Brief) string {
	var parts []string
	add := func(lines ...string) { parts = append(parts, lines...) }

	add("## Engagement Summary", "")
	if len(b.RecentActivities) > 0 {
		add(fmt.Sprintf("Found %d recent interactions including %s.", len(b.RecentActivities), strings.Join(activityTypes(b.RecentActivities), ", ")), "")
		for _, a := range b.RecentActivities {
			add(fmt.Sprintf("[%s] %s:", a.Date, a.Type), valueOr(a.FullBody, valueOr(a.Summary, "No details")), "")
		}
	} else {
		add("No recent activity recorded.", "")
	}

	add("## Active Deals Summary", "")
	if len(b.LiveDeals) > 0 {
		for _, d := range b.LiveDeals {
			add(dealLine(d, false))
		}
	} else {
		add("No active deals.")
	}
	add("")

	add("## Professional Updates", "")
	web := b.WebFindings
	if pos := strings.TrimSpace(web.LinkedIn.CurrentPosition); pos != "" {
		add("- Current position: " + pos)
	}
	if len(web.RecentActivity) > 0 {
		add("- Recent activity:")
		for _, item := range firstN(web.RecentActivity, 3) {
			add("  - " + item)
		}
	}
	if web.LinkedIn.IsEmpty() && len(web.RecentActivity) == 0 {
		add("No recent web activity found.")
	}
	return strings.Join(parts, "\n")
}

// activityTypes lists distinct types in first-seen order.
func activityTypes(activities []Activity) []string {
	seen := make(map[string]bool, len(activities))
	var out []string
	for _, a := range activities {
		kind := valueOr(a.Type, "Activity")
		if seen[kind] {
			continue
		}
		seen[kind] = true
		out = append(out, kind)
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
