package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yakaboskic/meta-sanity/log"
)

// Check validates a YAML spec by running the full expansion in memory
// without writing any output.
type Check struct {
	Yaml          string   `help:"Input YAML spec file or '-' for stdin"        required:"" short:"y" type:"path"`
	IgnoreClass   []string `help:"Drop matching instances (repeatable)"         name:"ignore-class" placeholder:"CLASS[:REGEX]"`
	DedupeSubsets bool     `help:"Enumerate duplicate subset members only once"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	out, err := expand(c.Yaml, c.IgnoreClass, c.DedupeSubsets)
	if err != nil {
		return err
	}

	instances := 0
	for line := range strings.Lines(out) {
		if strings.Contains(line, " class ") {
			instances++
		}
	}

	log.InfoContext(ctx, "spec is valid",
		slog.String("yaml", c.Yaml),
		slog.Int("instances", instances),
		slog.Int("lines", strings.Count(out, "\n")),
	)

	return nil
}
