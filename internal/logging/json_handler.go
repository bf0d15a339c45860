package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

// newJSONHandler writes one object per line with ts/level/msg keys, UTC
// timestamps and secrets masked.
func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		attr.Value = redact(attr.Key, attr.Value)
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(formatTimestamp(attr.Value.Time()))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(levelLabel(levelOf(attr.Value))))
	case slog.MessageKey:
		attr.Key = "msg"
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
		}
	default:
		attr.Value = redact(attr.Key, attr.Value)
	}
	return attr
}

func levelOf(v slog.Value) slog.Level {
	if level, ok := v.Any().(slog.Level); ok {
		return level
	}
	return slog.LevelInfo
}
