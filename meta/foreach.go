package meta

import (
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/yakaboskic/meta-sanity/log"
)

// runForEachItem emits one instance per element of the input list, binding
// each element as ${item}.
func (g *generator) runForEachItem(spec *templateSpec, input any) error {
	if input == nil {
		return ErrConfigShape.
			With(slog.String("reason", "missing required field 'input'"))
	}

	items, ok := input.([]any)
	if !ok {
		return ErrConfigShape.
			With(slog.String("field", "input"),
				slog.String("reason", "must be a list"))
	}

	for _, item := range items {
		if err := g.emitElement(spec, spec.nameTmpl, bindItem(item), false); err != nil {
			return err
		}
	}

	return nil
}

// runForEachClass emits one instance per previously registered member of a
// class (or per member of the named subsets), binding the member name as
// ${item}. Only instances registered by earlier templates or static class
// definitions are visible.
func (g *generator) runForEachClass(spec *templateSpec, input any) error {
	class, ifSubset, err := decodeClassSelection(input)
	if err != nil {
		return err
	}

	var items []string
	if len(ifSubset) > 0 {
		items = g.doc.membersOf(ifSubset)
	} else {
		items = g.doc.instancesOfClass(class)
	}

	if len(items) == 0 {
		log.Warn("no instances matched selection",
			slog.String("class", class),
			slog.Any("if_subset", ifSubset),
		)
	}

	nameTmpl := strings.ReplaceAll(spec.nameTmpl, "${prefix}", spec.prefix)

	for _, item := range items {
		if err := g.emitElement(spec, nameTmpl, bindItem(item), false); err != nil {
			return err
		}
	}

	return nil
}

// decodeClassSelection parses the for_each_class input mapping: a required
// class_name and an optional if_subset list. When if_subset is present the
// subset membership takes precedence over the class roster.
func decodeClassSelection(input any) (class string, ifSubset []string, err error) {
	if input == nil {
		return "", nil, ErrConfigShape.
			With(slog.String("reason", "missing required field 'input'"))
	}

	ms, ok := input.(yaml.MapSlice)
	if !ok {
		return "", nil, ErrConfigShape.
			With(slog.String("field", "input"),
				slog.String("reason", "requires 'input' to be a mapping"))
	}

	for _, field := range ms {
		switch Normalize(field.Key) {
		case "class_name":
			class = Normalize(field.Value)

		case "if_subset":
			ifSubset, err = decodeSubsets(field.Value, "input.if_subset")
			if err != nil {
				return "", nil, err
			}
		}
	}

	if class == "" {
		return "", nil, ErrConfigShape.
			With(slog.String("reason", "missing 'class_name' in 'input'"))
	}

	return class, ifSubset, nil
}
