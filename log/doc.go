// Package log provides a leveled, structured logging interface based on
// [log/slog], used across the module for diagnostics. Generated output
// goes to stdout; log output defaults to stderr so the two streams never
// interleave.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("expansion complete", slog.Int("instances", n))
//
// # Configuration
//
// Configure a logger at creation time with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithPretty(false))
//
// [Logger.Wrap] derives a reconfigured logger, and [Logger.With] attaches
// attributes to every subsequent message.
//
// # Default Logger
//
// The package-level functions ([Debug], [Info], [Warn], [Error] and their
// context-aware variants) log through a process-wide default logger.
// [Config] reconfigures it, which is how command-line flags take effect
// for all packages at once.
//
// # Output Formats
//
// Two formats are supported, [FormatText] (default) and [FormatJSON],
// each with a styled variant for terminals controlled by [WithPretty].
package log
