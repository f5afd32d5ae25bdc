// Package meta expands a declarative YAML configuration into a meta
// directive stream: a flat, ordered text document of class, parent, and
// property lines consumed by downstream pipeline tooling.
//
// Expansion is deterministic. The same input document and options always
// produce byte-identical output, because every collection in the pipeline
// (key table, class roster, subset membership, template execution) keeps
// declaration or registration order.
package meta

import (
	"log/slog"

	"github.com/yakaboskic/meta-sanity/log"
)

// Option adjusts a Generate call.
type Option func(config) config

type config struct {
	ignore        []string
	dedupeSubsets bool
}

func (c config) apply(opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// WithIgnoreClass adds ignore directives of the form CLASS or CLASS:REGEX.
// Instances of CLASS whose name matches REGEX (anchored at the start,
// defaulting to everything) are silently dropped at emission time.
func WithIgnoreClass(directives ...string) Option {
	return func(c config) config {
		c.ignore = append(c.ignore, directives...)
		return c
	}
}

// WithDedupeSubsets makes subset membership a set rather than a list, so
// an instance tagged into the same subset by multiple templates is
// enumerated once instead of once per tag.
func WithDedupeSubsets() Option {
	return func(c config) config {
		c.dedupeSubsets = true
		return c
	}
}

// Generate expands cfg into the complete meta directive stream. On error
// no partial output is returned.
func Generate(cfg *Config, opts ...Option) (string, error) {
	c := config{}.apply(opts...)

	if cfg.ConfigPath == "" {
		return "", ErrConfigShape.
			With(slog.String("reason", "missing required field 'config'"))
	}

	ignore, err := ParseIgnoreRules(c.ignore)
	if err != nil {
		return "", err
	}

	g := &generator{
		cfg:    cfg,
		keys:   newKeyTable(cfg.Keys),
		doc:    newDocument(c.dedupeSubsets),
		ignore: ignore,
		eval:   newEvaluator(),
	}

	head, err := g.header()
	if err != nil {
		return "", err
	}

	if err := g.staticClasses(); err != nil {
		return "", err
	}

	if err := g.runTemplates(); err != nil {
		return "", err
	}

	return head + g.doc.render() + "\n", nil
}

// header renders the preamble: the !config directive followed by one !key
// directive per table entry, each fully resolved.
func (g *generator) header() (string, error) {
	out := "!config " + g.cfg.ConfigPath + "\n"

	for _, name := range g.keys.names {
		value, err := g.keys.resolveKey(name, nil)
		if err != nil {
			return "", err
		}

		out += "!key " + name + " " + value + "\n"
	}

	return out, nil
}

// staticClasses registers every class definition in declaration order.
// Exactly one definition may omit a parent; that definition is the root of
// the class hierarchy.
func (g *generator) staticClasses() error {
	root := ""

	for _, def := range g.cfg.Classes {
		parents, err := parentList(def.Parent, def.Name)
		if err != nil {
			return err
		}

		if len(parents) == 0 {
			if def.Parent != nil {
				return ErrMissingParent.
					With(slog.String("class_def", def.Name),
						slog.String("reason", "empty 'parent' list"))
			}

			if root != "" {
				return ErrDuplicateRoot.
					With(slog.String("root", root),
						slog.String("conflicting", def.Name))
			}

			root = def.Name
		}

		if g.ignore.Match(def.Class, def.Name) {
			log.Debug("class definition ignored",
				slog.String("instance", def.Name),
				slog.String("class", def.Class),
			)

			continue
		}

		revisit, err := g.doc.open(def.Name, def.Class)
		if err != nil {
			return err
		}

		for _, parent := range parents {
			g.doc.parent(def.Name, parent, revisit)
		}

		for _, prop := range def.Properties {
			value, err := g.resolveClassProperty(prop.Value)
			if err != nil {
				return WrapError(err).
					With(slog.String("class_def", def.Name),
						slog.String("property", prop.Key))
			}

			g.doc.property(def.Name, prop.Key, value, revisit)
		}

		if !revisit {
			g.doc.seal(def.Name)
		}
	}

	return nil
}

// resolveClassProperty renders a static class property value: strings go
// through the key resolver, other scalars are normalized verbatim. Static
// definitions have no item binding, so expression spans are not evaluated
// here.
func (g *generator) resolveClassProperty(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return Normalize(raw), nil
	}

	return g.keys.Resolve(s)
}
