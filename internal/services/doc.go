// Package services defines shared utilities consumed by the workflows and the
// vendor API clients under it.
//
// Key responsibilities:
//   - Context helpers that stamp operation names, scan run IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, and HTTPStatus which
//     turns them into API status codes.
//   - HTTPError for non-success vendor responses and HostLimiter for
//     per-host outbound rate limits.
//
// Subpackages hold one client per vendor (HubSpot, Notion, Anthropic,
// Serper) on top of the rest helper.
package services
