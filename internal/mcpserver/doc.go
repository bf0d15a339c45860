// Package mcpserver exposes the notes workflow, reminder scan, call briefs
// and HubSpot deal desk as Model Context Protocol tools over stdio.
//
// Tools are registered only when the collaborator behind them is configured,
// so an assistant never sees a tool that can only fail.
package mcpserver
