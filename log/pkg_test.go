package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPackageFunctions_UseDefaultLogger(t *testing.T) {
	original := defaultLog
	defer func() { defaultLog = original }()

	var buf bytes.Buffer

	defaultLog = Make(&buf,
		WithLevel(LevelDebug),
		WithFormat(FormatJSON),
		WithPretty(false))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(tt.name+" message", slog.String("key", "value"))

			out := buf.String()
			if !strings.Contains(out, tt.name+" message") {
				t.Errorf("missing message: %s", out)
			}

			if !strings.Contains(out, tt.level) {
				t.Errorf("missing level %q: %s", tt.level, out)
			}

			if !strings.Contains(out, `"key":"value"`) {
				t.Errorf("missing attribute: %s", out)
			}
		})
	}
}

func TestConfig_ReconfiguresDefaultLogger(t *testing.T) {
	original := defaultLog
	defer func() { defaultLog = original }()

	var buf bytes.Buffer

	defaultLog = Make(&buf, WithFormat(FormatJSON), WithPretty(false))

	Config(WithLevel(LevelError))

	Info("filtered out")

	if buf.Len() != 0 {
		t.Errorf("reconfigured level not applied: %s", buf.String())
	}
}
