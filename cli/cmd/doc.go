// Package cmd implements the subcommands of the meta-sanity CLI.
//
// gen is the primary command: it reads a YAML spec, expands it through
// [meta.Generate], and writes the resulting meta directive file. check
// runs the same expansion in memory and reports whether the spec is
// valid without producing output.
package cmd
