package meta

import (
	"log/slog"

	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	"github.com/yakaboskic/meta-sanity/log"
)

// Operation tags recognized in template definitions.
const (
	OpForEachItem  = "for_each_item"
	OpForEachClass = "for_each_class"
	OpCombination  = "iter.combination"
	OpRange        = "range"
)

var operations = []string{OpForEachItem, OpForEachClass, OpCombination, OpRange}

// generator holds the mutable state threaded through one Generate call:
// the resolved key table, the growing document, the ignore filter, and the
// expression program cache. Templates execute strictly in declaration
// order because each observes the registry and subset state left by its
// predecessors.
type generator struct {
	cfg    *Config
	keys   *keyTable
	doc    *document
	ignore *IgnoreFilter
	eval   *evaluator
}

// templateSpec is the validated, shape-checked view of a Template that the
// operation executors consume.
type templateSpec struct {
	name     string
	class    string
	prefix   string
	parents  []string
	nameTmpl string
	props    []Property
	subsets  []string
}

func (g *generator) runTemplates() error {
	for i := range g.cfg.Templates {
		t := &g.cfg.Templates[i]

		if err := g.runTemplate(t); err != nil {
			return wrapTemplate(t.Name, err)
		}
	}

	return nil
}

func (g *generator) runTemplate(t *Template) error {
	if t.Operation == "" {
		return ErrConfigShape.
			With(slog.String("reason", "missing required field 'operation'"))
	}

	spec, err := g.validateTemplate(t)
	if err != nil {
		return err
	}

	switch t.Operation {
	case OpForEachItem:
		return g.runForEachItem(spec, t.Input)

	case OpForEachClass:
		return g.runForEachClass(spec, t.Input)

	case OpCombination:
		return g.runCombination(spec, t.Input)

	case OpRange:
		return g.runRange(spec, t.Input)

	default:
		err := ErrUnsupportedOperation.
			With(slog.String("operation", t.Operation))

		if matches := fuzzy.Find(t.Operation, operations); len(matches) > 0 {
			err = err.With(slog.String("suggestion", matches[0].Str))
		}

		return err
	}
}

// validateTemplate enforces the preconditions shared by all four
// operations: a class tag, a pattern mapping with a name template, and at
// most one parent declaration site.
func (g *generator) validateTemplate(t *Template) (*templateSpec, error) {
	if t.Class == "" {
		return nil, ErrConfigShape.
			With(slog.String("reason", "missing required field 'class'"))
	}

	if t.Pattern == nil {
		return nil, ErrConfigShape.
			With(slog.String("reason", "missing required field 'pattern'"))
	}

	pattern, ok := t.Pattern.(yaml.MapSlice)
	if !ok {
		return nil, ErrConfigShape.
			With(slog.String("field", "pattern"),
				slog.String("reason", "must be a mapping"))
	}

	spec := &templateSpec{
		name:    t.Name,
		class:   t.Class,
		prefix:  t.Prefix,
		subsets: t.Subsets,
	}

	var patternParent any

	for _, field := range pattern {
		switch Normalize(field.Key) {
		case "name":
			name, err := scalarString(field.Value, t.Name, "pattern.name")
			if err != nil {
				return nil, err
			}

			spec.nameTmpl = name

		case "parent":
			patternParent = field.Value

		case "properties":
			props, err := decodeProperties(field.Value, t.Name)
			if err != nil {
				return nil, err
			}

			spec.props = props
		}
	}

	if spec.nameTmpl == "" {
		return nil, ErrConfigShape.
			With(slog.String("reason", "missing 'name' in 'pattern'"))
	}

	if patternParent != nil && t.Parent != nil {
		return nil, ErrConflictingParentSpec.
			With(slog.String("reason",
				"specifies both 'parent' and 'pattern.parent'; use only one"))
	}

	parent := patternParent
	if parent == nil {
		parent = t.Parent
	}

	parents, err := parentList(parent, t.Name)
	if err != nil {
		return nil, err
	}

	spec.parents = parents

	return spec, nil
}

// parentList normalizes a parent declaration (nil, scalar, or list) into
// an ordered name slice.
func parentList(v any, owner string) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil

	case []any:
		parents := make([]string, 0, len(val))
		for _, p := range val {
			parents = append(parents, Normalize(p))
		}

		return parents, nil

	case yaml.MapSlice:
		return nil, ErrConfigShape.
			With(slog.String("owner", owner),
				slog.String("field", "parent"),
				slog.String("reason", "must be a name or list of names"))

	default:
		return []string{Normalize(val)}, nil
	}
}

// emitElement renders and registers one produced instance: name template,
// ignore gate, merge rule, parents, properties, subset tags. It is the
// single path shared by every operation, so the merge rule and the class
// conflict check apply uniformly. renderParents controls whether parent
// names are themselves templates (iter.combination substitutes bindings
// into parents; the other operations apply them verbatim).
func (g *generator) emitElement(
	spec *templateSpec,
	nameTmpl string,
	b binding,
	renderParents bool,
) error {
	name, err := g.eval.Render(nameTmpl, b)
	if err != nil {
		return WrapError(err).With(slog.String("field", "pattern.name"))
	}

	if g.ignore.Match(spec.class, name) {
		log.Debug("instance ignored",
			slog.String("instance", name),
			slog.String("class", spec.class),
		)

		return nil
	}

	revisit, err := g.doc.open(name, spec.class)
	if err != nil {
		return err
	}

	if revisit {
		log.Warn("duplicate instance name, merging",
			slog.String("instance", name),
			slog.String("class", spec.class),
		)
	}

	for _, parent := range spec.parents {
		if renderParents {
			parent, err = g.eval.Render(parent, b)
			if err != nil {
				return WrapError(err).With(slog.String("field", "parent"))
			}
		}

		g.doc.parent(name, parent, revisit)
	}

	for _, prop := range spec.props {
		value, err := g.renderProperty(prop.Value, b)
		if err != nil {
			return WrapError(err).With(slog.String("property", prop.Key))
		}

		g.doc.property(name, prop.Key, value, revisit)
	}

	if !revisit {
		g.doc.seal(name)
	}

	g.doc.tag(name, spec.subsets)

	return nil
}

// renderProperty produces the textual property value: string templates go
// through the expression evaluator and then the key resolver; non-string
// scalars are normalized directly.
func (g *generator) renderProperty(raw any, b binding) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return Normalize(raw), nil
	}

	rendered, err := g.eval.Render(s, b)
	if err != nil {
		return "", err
	}

	return g.keys.Resolve(rendered)
}
