// Package workflow drives the notes-to-CRM flow.
//
// ProcessNotes asks the extractor to structure free-text call notes and
// reconciles the named contact against the CRM, returning a Preview for a
// human to confirm. ConfirmAndExecute then fans the confirmed data out to the
// CRM note, the investor preference page and the to-do database, collecting
// per-step failures instead of stopping at the first one.
//
// Requests arrive in two JSON shapes; NormalizeExecuteRequest maps both onto
// ExecuteRequest so the execution path never branches on shape.
package workflow
