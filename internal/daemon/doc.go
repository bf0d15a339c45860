// Package daemon coordinates the long-running dealflow process.
//
// It owns the HTTP API listener and the daily reminder schedule, and holds a
// flock-based lock so only one instance runs against a data directory. Keep
// orchestration here: the scan, notes and call-prep logic live in their own
// packages while the daemon focuses on startup, shutdown and status.
package daemon
