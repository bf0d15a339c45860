// Package notifications delivers reminder digests by email.
//
// NewSender picks the transport from config: Resend when an API key is set,
// otherwise an authenticated SMTP relay, otherwise a sender whose every Send
// fails with ErrNotConfigured. Callers depend only on the Sender interface.
package notifications
