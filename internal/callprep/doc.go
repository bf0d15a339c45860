// Package callprep assembles pre-call briefs from CRM history, open deals and
// web findings.
//
// Engagements from the CRM timeline are decoded into a closed set of types
// (NoteEngagement, CallEngagement, MeetingEngagement, EmailEngagement and the
// OtherEngagement fallback), each carrying only the fields it displays. The
// Preparer gathers the inputs concurrently and asks the model for a markdown
// brief; when the model is unavailable a deterministic brief with the same
// sections is produced and the failure is reported on Brief.Error.
package callprep
