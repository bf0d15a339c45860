// Package api serves the HTTP interface used by the notes front end and by
// automation that triggers reminder scans.
//
// Every route except GET /health takes a JSON body via POST and answers with
// JSON. Failures use the {"error": "..."} envelope with the status picked by
// services.HTTPStatus, so validation problems are 400 and vendor failures
// are 5xx.
//
// The middleware chain tags each request with a ULID request id (echoed in
// X-Request-ID and attached to log lines as correlation_id), recovers panics,
// writes an access log line, and enforces bearer authentication when a token
// is configured. /health stays open so probes do not need the token.
package api
