// Package config loads, normalizes, and validates dealflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HUBSPOT_API_KEY and NOTION_API_KEY. FillSecrets layers keyring values
// under both. The Config type centralizes every knob the daemon and CLI need
// so vendor credentials and digest delivery settings are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
