package logging

import (
	"context"
	"log/slog"
)

// Sink is one destination of a tee. Level, when set, is the minimum level
// the sink records on top of whatever its handler enables.
type Sink struct {
	Handler slog.Handler
	Level   slog.Leveler
}

func (s Sink) accepts(ctx context.Context, level slog.Level) bool {
	if s.Level != nil && level < s.Level.Level() {
		return false
	}
	return s.Handler.Enabled(ctx, level)
}

type teeHandler struct {
	sinks []Sink
}

// TeeHandler writes each record to every sink that accepts its level. Sinks
// without a handler are ignored.
func TeeHandler(sinks ...Sink) slog.Handler {
	kept := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink.Handler != nil {
			kept = append(kept, sink)
		}
	}
	switch {
	case len(kept) == 0:
		return NoopHandler{}
	case len(kept) == 1 && kept[0].Level == nil:
		return kept[0].Handler
	}
	return &teeHandler{sinks: kept}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range h.sinks {
		if sink.accepts(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, sink := range h.sinks {
		if !sink.accepts(ctx, record.Level) {
			continue
		}
		if err := sink.Handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]Sink, len(h.sinks))
	for i, sink := range h.sinks {
		next[i] = Sink{Handler: fn(sink.Handler), Level: sink.Level}
	}
	return &teeHandler{sinks: next}
}

// fileLevel is the level the operator log file records at. It never drops
// below info so scan and request summaries stay on disk even when the
// console is turned down to warnings.
func fileLevel(console slog.Level) slog.Level {
	if console > slog.LevelInfo {
		return slog.LevelInfo
	}
	return console
}
