package cli

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/yakaboskic/meta-sanity/log"
)

// logFormat configures the logger format as a side effect of parsing via
// encoding.TextUnmarshaler, so the format takes effect before command
// execution begins.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing via
// encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"trace,debug,info,warn,error" help:"Set log level."`
	Format     logFormat `default:"text"    enum:"text,json"                   help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                                    help:"Set timestamp format."`
	Caller     bool      `default:"false"                                      help:"Include caller information."  negatable:""`
	Pretty     bool      `default:"true"                                       help:"Enable styled log output."    negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(timeLayout(f.TimeLayout)),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// timeLayout maps the named layouts accepted on the command line to their
// time package equivalents; anything unrecognized passes through as a
// literal layout string. "none" disables timestamps.
func timeLayout(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rfc3339":
		return "2006-01-02T15:04:05Z07:00"
	case "rfc3339nano":
		return "2006-01-02T15:04:05.999999999Z07:00"
	case "kitchen":
		return "3:04PM"
	case "stamp":
		return "Jan _2 15:04:05"
	case "stampmilli", "milli", "ms":
		return "Jan _2 15:04:05.000"
	case "none":
		return ""
	default:
		return name
	}
}

// scan performs an early pass over the command line to apply logger flags
// before kong begins parsing, so the logger configuration holds regardless
// of flag position.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		name, value, assigned := strings.Cut(args[i], "=")

		// Non-boolean flags consume the following argument when the
		// value was not attached with "=".
		next := func() string {
			if assigned {
				return value
			}

			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				return args[i]
			}

			return ""
		}

		boolValue := func(invert bool) bool {
			enabled := true

			if assigned {
				if v, err := strconv.ParseBool(value); err == nil {
					enabled = v
				}
			}

			if invert {
				return !enabled
			}

			return enabled
		}

		switch name {
		case "--log-level":
			_ = f.Level.UnmarshalText([]byte(next()))

		case "--log-format":
			_ = f.Format.UnmarshalText([]byte(next()))

		case "--log-pretty":
			f.Pretty = boolValue(false)
			log.Config(log.WithPretty(f.Pretty))

		case "--no-log-pretty":
			f.Pretty = boolValue(true)
			log.Config(log.WithPretty(f.Pretty))

		case "--log-caller":
			f.Caller = boolValue(false)
			log.Config(log.WithCaller(f.Caller))

		case "--no-log-caller":
			f.Caller = boolValue(true)
			log.Config(log.WithCaller(f.Caller))
		}
	}
}
