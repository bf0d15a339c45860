package logging

import (
	"log/slog"
	"strings"
)

const redactedValue = "********"

// secretKeys are attribute keys whose values never reach a log sink.
var secretKeys = map[string]struct{}{
	"api_key":       {},
	"api_token":     {},
	"authorization": {},
	"password":      {},
	"smtp_password": {},
	"token":         {},
}

func isSecretKey(key string) bool {
	if idx := strings.LastIndexByte(key, '.'); idx >= 0 {
		key = key[idx+1:]
	}
	_, ok := secretKeys[strings.ToLower(key)]
	return ok
}

// redact masks non-empty secret values; everything else passes through.
func redact(key string, value slog.Value) slog.Value {
	if !isSecretKey(key) {
		return value
	}
	if value.Kind() == slog.KindString && value.String() == "" {
		return value
	}
	return slog.StringValue(redactedValue)
}
