package logging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// TeeHandler is a slog.Handler that writes every record to several handlers.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler that writes to all provided handlers.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

// Tee returns a logger writing to all provided handlers.
func Tee(handlers ...slog.Handler) *slog.Logger {
	return slog.New(NewTeeHandler(handlers...))
}

// Enabled returns true if any handler is enabled for the level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to every enabled handler. A failing handler does
// not stop the others; their errors are joined.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: handlers}
}

func (h *TeeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &TeeHandler{handlers: handlers}
}

// Entry is a record captured by a Recorder. Attrs holds the record's own
// attributes plus any added with WithAttrs; groups are not tracked.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Recorder is a slog.Handler that keeps records in memory so tests can
// assert on what was logged.
type Recorder struct {
	level slog.Level
	attrs []slog.Attr

	mu      *sync.Mutex
	entries *[]Entry
}

// NewRecorder creates a Recorder capturing records at level and above.
func NewRecorder(level Level) *Recorder {
	return &Recorder{
		level:   level,
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
	}
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	entry := Entry{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   make(map[string]any, rec.NumAttrs()+len(r.attrs)),
	}
	for _, a := range r.attrs {
		entry.Attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.Any()
		return true
	})

	r.mu.Lock()
	*r.entries = append(*r.entries, entry)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *r
	out.attrs = append(append([]slog.Attr{}, r.attrs...), attrs...)
	return &out
}

func (r *Recorder) WithGroup(string) slog.Handler {
	return r
}

// Entries returns a copy of the captured records.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), *r.entries...)
}

// Messages returns the messages of captured records at exactly level.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
