// Package history persists daily scan results in SQLite.
//
// The store implements reminders.Recorder so the scanner can log each run,
// and List feeds the `dealflow history` command.
package history
