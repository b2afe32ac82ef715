package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiAmber = "\033[33m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiDim   = "\033[90m"
)

// PrettyHandler is a slog.Handler for terminal output. A "stage" attribute
// is lifted out of the attribute list and printed as a prefix to the message:
//
//	15:04:05 INFO  [quantize] scale computed scale=50.8
type PrettyHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	prefix string // group path, "" or "a.b."
	stage  string
	attrs  []slog.Attr
}

// NewPrettyHandler creates a new PrettyHandler. Only opts.Level is used.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{level: slog.LevelInfo, w: w, mu: new(sync.Mutex)}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	stage := h.stage
	var line strings.Builder
	line.Grow(160)

	line.WriteString(ansiDim)
	line.WriteString(r.Time.Format(time.TimeOnly))
	line.WriteString(ansiReset + " ")

	label, color := levelStyle(r.Level)
	fmt.Fprintf(&line, "%s%s%-5s%s ", color, ansiBold, label, ansiReset)

	var rest []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == KeyStage {
			stage = a.Value.String()
		} else {
			rest = append(rest, a)
		}
		return true
	})
	if stage != "" {
		line.WriteString(ansiGreen + "[" + stage + "]" + ansiReset + " ")
	}
	line.WriteString(r.Message)

	if len(h.attrs)+len(rest) > 0 {
		line.WriteString(ansiCyan)
		for _, a := range h.attrs {
			writeAttr(&line, a, "")
		}
		for _, a := range rest {
			writeAttr(&line, a, h.prefix)
		}
		line.WriteString(ansiReset)
	}
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == KeyStage {
			next.stage = a.Value.String()
			continue
		}
		a.Key = h.prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level >= slog.LevelError:
		return "ERROR", ansiRed
	case level >= slog.LevelWarn:
		return "WARN", ansiAmber
	case level >= slog.LevelInfo:
		return "INFO", ansiBlue
	default:
		return "DEBUG", ansiDim
	}
}

// writeAttr writes " key=value". Group values are flattened with dotted
// keys.
func writeAttr(b *strings.Builder, a slog.Attr, prefix string) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range v.Group() {
			writeAttr(b, ga, prefix)
		}
		return
	}
	if a.Equal(slog.Attr{}) {
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix + a.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(v))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			return strconv.Quote(s)
		}
		return s
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Microsecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return fmt.Sprint(v.Any())
	}
}

func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\n\"=")
}
