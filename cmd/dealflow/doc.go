// Package main hosts the dealflow CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, fills blank
// credentials from the OS keyring, and hands off to the internal packages:
// the daemon for serve, the reminder scanner for scan, the notes workflow and
// call preparer for one-off runs, and the MCP server for assistant clients.
package main
