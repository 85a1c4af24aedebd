package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang/glog"
)

// glogDepth skips the slog frames between the caller and Handle.
const glogDepth = 4

// GlogHandler is a slog.Handler that writes records through glog. Debug
// records are only emitted at glog verbosity 2 and above.
type GlogHandler struct {
	level  slog.Leveler
	prefix string
	attrs  []slog.Attr
}

// NewGlogHandler returns a handler that drops records below level.
func NewGlogHandler(level slog.Leveler) *GlogHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &GlogHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *GlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level < h.level.Level() {
		return false
	}
	if level < slog.LevelInfo {
		return bool(glog.V(2))
	}
	return true
}

// Handle implements slog.Handler.
func (h *GlogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	msg := b.String()

	switch {
	case r.Level >= slog.LevelError:
		glog.ErrorDepth(glogDepth, msg)
	case r.Level >= slog.LevelWarn:
		glog.WarningDepth(glogDepth, msg)
	default:
		glog.InfoDepth(glogDepth, msg)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *GlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &out
}

// WithGroup implements slog.Handler.
func (h *GlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := *h
	out.prefix = h.prefix + name + "."
	return &out
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			writeAttr(b, p, g)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value.Any())
}
