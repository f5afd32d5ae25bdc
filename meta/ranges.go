package meta

import (
	"log/slog"
	"strconv"

	"github.com/goccy/go-yaml"
)

// rangeSpec is a closed numeric interval walked by a fixed increment.
// start and end are inclusive; the walk stops at the first value past end
// in the direction of inc.
type rangeSpec struct {
	start float64
	end   float64
	inc   float64
}

// decodeRangeSpec reads start/end/inc out of a mapping and validates that
// the walk terminates: inc must be nonzero and must point from start
// toward end.
func decodeRangeSpec(ms yaml.MapSlice, owner string) (*rangeSpec, error) {
	var start, end, inc any
	var hasStart, hasEnd, hasInc bool

	for _, field := range ms {
		switch Normalize(field.Key) {
		case "start":
			start, hasStart = field.Value, true
		case "end":
			end, hasEnd = field.Value, true
		case "inc":
			inc, hasInc = field.Value, true
		}
	}

	if !hasStart || !hasEnd || !hasInc {
		return nil, ErrRangeConfig.
			With(slog.String("owner", owner),
				slog.String("reason", "requires 'start', 'end', and 'inc' fields"))
	}

	s, serr := rangeFloat(start)
	e, eerr := rangeFloat(end)
	i, ierr := rangeFloat(inc)

	if serr != nil || eerr != nil || ierr != nil {
		return nil, ErrRangeConfig.
			With(slog.String("owner", owner),
				slog.String("reason", "invalid numeric values for 'start', 'end', or 'inc'"))
	}

	switch {
	case i == 0:
		return nil, ErrRangeConfig.
			With(slog.String("owner", owner),
				slog.String("reason", "'inc' of 0 would cause an infinite loop"))

	case i > 0 && s > e:
		return nil, ErrRangeConfig.
			With(slog.String("owner", owner),
				slog.String("reason", "positive 'inc' but 'start' > 'end'"),
				slog.Float64("start", s),
				slog.Float64("end", e))

	case i < 0 && s < e:
		return nil, ErrRangeConfig.
			With(slog.String("owner", owner),
				slog.String("reason", "negative 'inc' but 'start' < 'end'"),
				slog.Float64("start", s),
				slog.Float64("end", e))
	}

	return &rangeSpec{start: s, end: e, inc: i}, nil
}

// values walks the interval and returns each point, whole floats demoted
// to integers so downstream rendering prints 1 rather than 1.0.
func (r *rangeSpec) values() []any {
	var out []any

	if r.inc > 0 {
		for v := r.start; v <= r.end; v += r.inc {
			out = append(out, demoteWhole(v))
		}
	} else {
		for v := r.start; v >= r.end; v += r.inc {
			out = append(out, demoteWhole(v))
		}
	}

	return out
}

// rangeFloat coerces the scalar types the YAML decoder can hand us,
// including numeric strings, into float64.
func rangeFloat(v any) (float64, error) {
	switch val := v.(type) {
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case float32:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		return strconv.ParseFloat(val, 64)
	default:
		return 0, strconv.ErrSyntax
	}
}

// runRange emits one instance per point of the interval, binding each
// point as ${item}.
func (g *generator) runRange(spec *templateSpec, input any) error {
	if input == nil {
		return ErrConfigShape.
			With(slog.String("reason", "missing required field 'input'"))
	}

	ms, ok := input.(yaml.MapSlice)
	if !ok {
		return ErrConfigShape.
			With(slog.String("field", "input"),
				slog.String("reason", "requires 'input' to be a mapping"))
	}

	r, err := decodeRangeSpec(ms, "input")
	if err != nil {
		return err
	}

	for _, item := range r.values() {
		if err := g.emitElement(spec, spec.nameTmpl, bindItem(item), false); err != nil {
			return err
		}
	}

	return nil
}
