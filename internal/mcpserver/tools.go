package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

var processNotesToolDef = mcp.NewTool("process_notes",
	mcp.WithDescription("Parse raw call notes into a preview: contact, summary, investor preferences, todos and matching HubSpot contacts. Nothing is written."),
	mcp.WithString("notes", mcp.Required(), mcp.Description("Raw call or meeting notes")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var searchContactToolDef = mcp.NewTool("search_contact",
	mcp.WithDescription("Search HubSpot contacts by email, name or company."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Email address, full name or company")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var searchInvestorToolDef = mcp.NewTool("search_investor",
	mcp.WithDescription("Find investor records in the Notion preference database by company name."),
	mcp.WithString("company_name", mcp.Required(), mcp.Description("Investor firm name or part of it")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var confirmAndExecuteToolDef = mcp.NewTool("confirm_and_execute",
	mcp.WithDescription("Write a confirmed preview: log the HubSpot note, merge investor preferences into Notion and create Notion to-dos. Accepts the flat preview shape or the nested contact/notes/options shape."),
	mcp.WithString("contact_id", mcp.Description("HubSpot contact id")),
	mcp.WithString("contact_name", mcp.Description("Contact display name")),
	mcp.WithString("company_name", mcp.Description("Investor firm name")),
	mcp.WithString("raw_notes", mcp.Description("Original notes text")),
	mcp.WithArray("summary", mcp.Description("Summary bullets"), mcp.WithStringItems()),
	mcp.WithObject("preferences", mcp.Description("Preference categories mapped to values")),
	mcp.WithArray("todos", mcp.Description("Todos with task_name, due_date and description")),
	mcp.WithBoolean("skip_hubspot", mcp.Description("Do not log a HubSpot note")),
	mcp.WithBoolean("skip_investor_prefs", mcp.Description("Do not touch the Notion investor record")),
	mcp.WithObject("contact", mcp.Description("Nested shape: id, name, company_name")),
	mcp.WithObject("notes", mcp.Description("Nested shape: raw, summary")),
	mcp.WithObject("options", mcp.Description("Nested shape: skip_hubspot, skip_investor_prefs")),
)

var sendRemindersToolDef = mcp.NewTool("send_reminders",
	mcp.WithDescription("Run the daily reminder scan now and email the digest."),
)

var prepareCallToolDef = mcp.NewTool("prepare_call",
	mcp.WithDescription("Build a call brief for a HubSpot contact from CRM history, deals and web news."),
	mcp.WithString("contact_id", mcp.Required(), mcp.Description("HubSpot contact id")),
	mcp.WithString("name", mcp.Description("Override the contact name")),
	mcp.WithString("company", mcp.Description("Override the company used for web search")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var contactDealsToolDef = mcp.NewTool("contact_deals",
	mcp.WithDescription("List the HubSpot deals associated with a contact, with stage labels."),
	mcp.WithString("contact_id", mcp.Required(), mcp.Description("HubSpot contact id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var getDealToolDef = mcp.NewTool("get_deal",
	mcp.WithDescription("Load one HubSpot deal."),
	mcp.WithString("deal_id", mcp.Required(), mcp.Description("HubSpot deal id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var searchDealsToolDef = mcp.NewTool("search_deals",
	mcp.WithDescription("Search HubSpot deals by name."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Deal name or part of it")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var updateDealToolDef = mcp.NewTool("update_deal",
	mcp.WithDescription("Patch a HubSpot deal. Omitted fields are left untouched."),
	mcp.WithString("deal_id", mcp.Required(), mcp.Description("HubSpot deal id")),
	mcp.WithString("stage", mcp.Description("Deal stage id")),
	mcp.WithString("next_step", mcp.Description("Next step text")),
	mcp.WithString("next_steps_date", mcp.Description("Next step date, YYYY-MM-DD")),
	mcp.WithString("amount", mcp.Description("Deal amount")),
)

var createDealToolDef = mcp.NewTool("create_deal",
	mcp.WithDescription("Create a HubSpot deal, optionally linked to a contact."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Deal name")),
	mcp.WithString("stage", mcp.Description("Deal stage id")),
	mcp.WithString("next_step", mcp.Description("Next step text")),
	mcp.WithString("next_steps_date", mcp.Description("Next step date, YYYY-MM-DD")),
	mcp.WithString("contact_id", mcp.Description("HubSpot contact to associate")),
)

var createFollowUpTaskToolDef = mcp.NewTool("create_follow_up_task",
	mcp.WithDescription("Create an open HubSpot task due at UTC midnight a number of days from now."),
	mcp.WithString("subject", mcp.Required(), mcp.Description("Task subject")),
	mcp.WithNumber("due_in_days", mcp.Required(), mcp.Description("Days from today, e.g. 30, 90 or 180")),
	mcp.WithString("contact_id", mcp.Description("HubSpot contact to associate")),
)

var getInvestorToolDef = mcp.NewTool("get_investor",
	mcp.WithDescription("Load one investor record from the Notion preference database."),
	mcp.WithString("page_id", mcp.Required(), mcp.Description("Notion page id")),
	mcp.WithReadOnlyHintAnnotation(true),
)
