package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yakaboskic/meta-sanity/log"
	"github.com/yakaboskic/meta-sanity/meta"
)

// Gen expands a YAML spec into a meta directive file.
type Gen struct {
	Yaml          string   `help:"Input YAML spec file or '-' for stdin"        required:"" short:"y" type:"path"`
	Output        string   `help:"Output meta file path or '-' for stdout"      default:"-" short:"o" type:"path"`
	IgnoreClass   []string `help:"Drop matching instances (repeatable)"         name:"ignore-class" placeholder:"CLASS[:REGEX]"`
	DedupeSubsets bool     `help:"Enumerate duplicate subset members only once"`
}

// Run executes the gen command.
func (g *Gen) Run(ctx context.Context) error {
	out, err := expand(g.Yaml, g.IgnoreClass, g.DedupeSubsets)
	if err != nil {
		return err
	}

	if err := writeOutput(ctx, g.Output, out); err != nil {
		return err
	}

	log.DebugContext(ctx, "meta file written",
		slog.String("yaml", g.Yaml),
		slog.String("output", g.Output),
		slog.Int("lines", strings.Count(out, "\n")),
	)

	return nil
}

// expand is the single load-parse-generate path shared by gen and check.
func expand(path string, ignore []string, dedupe bool) (string, error) {
	data, err := readSource(path)
	if err != nil {
		return "", err
	}

	cfg, err := meta.ParseConfig(data)
	if err != nil {
		return "", err
	}

	opts := []meta.Option{meta.WithIgnoreClass(ignore...)}
	if dedupe {
		opts = append(opts, meta.WithDedupeSubsets())
	}

	return meta.Generate(cfg, opts...)
}
