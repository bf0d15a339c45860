package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxConsoleValue caps one console value, in runes. Raw meeting notes and
// vendor error bodies would otherwise flood the terminal; the JSON log file
// keeps them whole.
const maxConsoleValue = 240

// plainValue renders v without quoting.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// consoleValue renders v for a key=value pair: cut to maxConsoleValue and
// quoted when it would not parse back as one token.
func consoleValue(v slog.Value) string {
	s := plainValue(v)
	if utf8.RuneCountInString(s) > maxConsoleValue {
		s = string([]rune(s)[:maxConsoleValue]) + "..."
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}
