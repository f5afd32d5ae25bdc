// Package cli contains the command line interface for meta-sanity.
//
// # Usage
//
// gen is the default command, so both forms are equivalent:
//
//	meta-sanity --yaml spec.yaml --output out.meta
//	meta-sanity gen --yaml spec.yaml --output out.meta
//
// check validates a spec without writing anything:
//
//	meta-sanity check --yaml spec.yaml
//
// Logging and profiling flags apply to every command:
//
//	meta-sanity --log-level=debug --log-format=json gen -y spec.yaml
//
// Profiling flags exist only in binaries built with the pprof tag.
//
// # Configuration
//
// Default flag values may be stored in a JSON file under the user's
// configuration directory (for example
// ~/.config/meta-sanity/config.json); explicit command-line flags take
// precedence.
package cli
