// Package reminders classifies deals, tasks and to-dos as due tomorrow or
// overdue and delivers the daily digest email.
//
// Every due value is reduced to a UTC calendar date before comparison, so a
// millisecond timestamp and a YYYY-MM-DD string naming the same day classify
// identically. Items due today are neither due tomorrow nor overdue.
package reminders
