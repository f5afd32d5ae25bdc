package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles used by the pretty handler. Keys are dimmed so values carry the
// visual weight; levels are colored by severity.
var (
	styleKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleString  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleNumber  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleTrue    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFalse   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleTime    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleMessage = lipgloss.NewStyle().Bold(true)

	levelStyles = map[Level]lipgloss.Style{
		LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

func levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return levelStyles[LevelError]
	case level >= slog.LevelWarn:
		return levelStyles[LevelWarn]
	case level >= slog.LevelInfo:
		return levelStyles[LevelInfo]
	case level >= slog.LevelDebug:
		return levelStyles[LevelDebug]
	default:
		return levelStyles[LevelTrace]
	}
}

// prettyHandler renders records for human reading in either a single-line
// text layout or an indented JSON-like layout, styled with lipgloss.
type prettyHandler struct {
	cfg    config
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

func newPrettyHandler(w io.Writer, cfg config) *prettyHandler {
	return &prettyHandler{
		cfg: cfg,
		mu:  &sync.Mutex{},
		w:   w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.cfg.level)
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h

	clone.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)

	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h

	clone.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &clone
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if h.cfg.format == FormatJSON {
		h.renderJSON(buf, r)
	} else {
		h.renderText(buf, r)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) renderText(buf *bytes.Buffer, r slog.Record) {
	if !r.Time.IsZero() && h.cfg.timeLayout != "" {
		buf.WriteString(styleTime.Render(r.Time.Format(h.cfg.timeLayout)))
		buf.WriteByte(' ')
	}

	name := strings.ToUpper(Level(r.Level).String())
	buf.WriteString(levelStyle(r.Level).Render(name))
	buf.WriteByte(' ')

	if h.cfg.caller {
		if src := r.Source(); src != nil {
			buf.WriteString(styleKey.Render(
				fmt.Sprintf("%s:%d", src.File, src.Line)))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(styleMessage.Render(r.Message))

	emit := func(a slog.Attr) bool {
		buf.WriteByte(' ')
		buf.WriteString(styleKey.Render(h.attrKey(a.Key)))
		buf.WriteByte('=')
		buf.WriteString(renderValue(a.Value))

		return true
	}

	for _, a := range h.attrs {
		emit(a)
	}

	r.Attrs(emit)
}

func (h *prettyHandler) renderJSON(buf *bytes.Buffer, r slog.Record) {
	buf.WriteString("{\n")

	first := true

	field := func(key, value string) {
		if !first {
			buf.WriteString(",\n")
		}

		first = false

		buf.WriteString("  ")
		buf.WriteString(styleKey.Render(key))
		buf.WriteString(": ")
		buf.WriteString(value)
	}

	if !r.Time.IsZero() && h.cfg.timeLayout != "" {
		field(slog.TimeKey,
			styleTime.Render(r.Time.Format(h.cfg.timeLayout)))
	}

	name := strings.ToUpper(Level(r.Level).String())
	field(slog.LevelKey, levelStyle(r.Level).Render(name))

	if h.cfg.caller {
		if src := r.Source(); src != nil {
			field(slog.SourceKey, styleKey.Render(
				fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	field(slog.MessageKey, styleMessage.Render(r.Message))

	emit := func(a slog.Attr) bool {
		field(h.attrKey(a.Key), renderValue(a.Value))

		return true
	}

	for _, a := range h.attrs {
		emit(a)
	}

	r.Attrs(emit)

	buf.WriteString("\n}")
}

// attrKey prefixes a key with the open group path.
func (h *prettyHandler) attrKey(key string) string {
	if len(h.groups) == 0 {
		return key
	}

	return strings.Join(h.groups, ".") + "." + key
}

func renderValue(v slog.Value) string {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return styleString.Render(v.String())

	case slog.KindInt64:
		return styleNumber.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return styleNumber.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return styleNumber.Render(
			strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return styleTrue.Render("true")
		}

		return styleFalse.Render("false")

	case slog.KindDuration:
		return styleNumber.Render(v.Duration().String())

	case slog.KindTime:
		return styleTime.Render(v.Time().String())

	case slog.KindGroup:
		part := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			part = append(part,
				styleKey.Render(a.Key)+"="+renderValue(a.Value))
		}

		return "[" + strings.Join(part, " ") + "]"

	default:
		return styleString.Render(v.String())
	}
}
