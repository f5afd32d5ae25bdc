package meta

import (
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"
)

// dimension is one axis of an iter.combination product: a binding name and
// the ordered values it cycles through.
type dimension struct {
	name   string
	values []any
}

// runCombination emits the cartesian product of the input dimensions in
// row-major order, the last dimension varying fastest. Each element binds
// every dimension value as ${item:NAME}, in both the name template and the
// parent declarations.
func (g *generator) runCombination(spec *templateSpec, input any) error {
	if input == nil {
		return ErrConfigShape.
			With(slog.String("reason", "missing required field 'input'"))
	}

	specs, ok := input.([]any)
	if !ok {
		return ErrConfigShape.
			With(slog.String("field", "input"),
				slog.String("reason", "must be a list"))
	}

	if len(specs) == 0 {
		return ErrConfigShape.
			With(slog.String("reason", "empty 'input' list"))
	}

	if len(spec.parents) == 0 {
		return ErrMissingParent.
			With(slog.String("reason", "iter.combination requires a 'parent' declaration"))
	}

	dims := make([]dimension, 0, len(specs))
	for _, raw := range specs {
		dim, err := g.decodeDimension(raw)
		if err != nil {
			return err
		}

		dims = append(dims, dim)
	}

	nameTmpl := strings.ReplaceAll(spec.nameTmpl, "${prefix}", spec.prefix)

	return walkProduct(dims, func(bound map[string]any) error {
		return g.emitElement(spec, nameTmpl, bindNamed(bound), true)
	})
}

// decodeDimension parses one input spec. A dimension sources its values
// from exactly one of: a class roster (class_name, optionally narrowed by
// if_subset), a literal values list, or an inline range.
func (g *generator) decodeDimension(raw any) (dimension, error) {
	ms, ok := raw.(yaml.MapSlice)
	if !ok {
		return dimension{}, ErrConfigShape.
			With(slog.String("field", "input"),
				slog.String("reason", "each input spec must be a mapping"))
	}

	var (
		name      string
		class     string
		ifSubset  []string
		values    []any
		hasValues bool
		operation string
	)

	for _, field := range ms {
		switch Normalize(field.Key) {
		case "name":
			name = Normalize(field.Value)

		case "class_name":
			class = Normalize(field.Value)

		case "if_subset":
			subsets, err := decodeSubsets(field.Value, "input.if_subset")
			if err != nil {
				return dimension{}, err
			}

			ifSubset = subsets

		case "values":
			list, ok := field.Value.([]any)
			if !ok {
				return dimension{}, ErrConfigShape.
					With(slog.String("field", "values"),
						slog.String("reason", "must be a list"))
			}

			values, hasValues = list, true

		case "operation":
			operation = Normalize(field.Value)
		}
	}

	if name == "" {
		return dimension{}, ErrConfigShape.
			With(slog.String("reason", "missing 'name' field in input spec"))
	}

	switch {
	case class != "":
		var members []string
		if len(ifSubset) > 0 {
			members = g.doc.membersOf(ifSubset)
		} else {
			members = g.doc.instancesOfClass(class)
		}

		items := make([]any, len(members))
		for i, m := range members {
			items[i] = m
		}

		return dimension{name: name, values: items}, nil

	case hasValues:
		return dimension{name: name, values: values}, nil

	case operation == OpRange:
		r, err := decodeRangeSpec(ms, "input."+name)
		if err != nil {
			return dimension{}, err
		}

		return dimension{name: name, values: r.values()}, nil

	default:
		return dimension{}, ErrConfigShape.
			With(slog.String("spec", name),
				slog.String("reason",
					"input spec needs 'class_name', 'values', or a range operation"))
	}
}

// walkProduct visits every combination of the dimensions, rightmost
// dimension fastest. A dimension with no values makes the product empty.
func walkProduct(dims []dimension, visit func(map[string]any) error) error {
	for _, dim := range dims {
		if len(dim.values) == 0 {
			return nil
		}
	}

	idx := make([]int, len(dims))
	bound := make(map[string]any, len(dims))

	for {
		for i, dim := range dims {
			bound[dim.name] = dim.values[idx[i]]
		}

		if err := visit(bound); err != nil {
			return err
		}

		i := len(dims) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(dims[i].values) {
				break
			}

			idx[i] = 0
		}

		if i < 0 {
			return nil
		}
	}
}
