// Package llm provides an Anthropic messages client used to structure call
// notes and to write call briefs.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: single-turn prompt, text reply.
// Client.CompleteJSON: system/user prompts, raw JSON reply.
// Client.ParseNotes: extract contact, deal, summary, preferences, and to-dos.
// Client.HealthCheck: verify the API key and model.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies, and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Context cancellation aborts retries immediately.
//
// # Fallback
//
// Callers decide what to do when the model is unavailable. The notes flow
// surfaces the error; the call brief flow renders a deterministic brief from
// the gathered data instead.
package llm
