package meta

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// itemRef matches a ${item:NAME} reference inside a multi-value span.
var itemRef = regexp.MustCompile(`item:(\w+)`)

// binding carries the value(s) bound to the current element. Single-value
// operations set value; iter.combination sets named (one entry per
// dimension).
type binding struct {
	value any
	named map[string]any
}

func bindItem(v any) binding             { return binding{value: v} }
func bindNamed(m map[string]any) binding { return binding{named: m} }

func (b binding) multi() bool { return b.named != nil }

// evaluator renders name/property templates by scanning for ${...} spans
// and substituting variable references or restricted expression results.
// Compiled expression programs are cached by rewritten source so each
// distinct span compiles once per generation run and evaluates per element.
type evaluator struct {
	programs map[string]*vm.Program
}

func newEvaluator() *evaluator {
	return &evaluator{programs: make(map[string]*vm.Program)}
}

// Render substitutes every ${...} span of tmpl, left to right. Spans that
// do not mention item pass through untouched, so unrelated ${...}-shaped
// text (including ${key} references destined for the key resolver)
// survives.
func (e *evaluator) Render(tmpl string, b binding) (string, error) {
	var out strings.Builder

	rest := tmpl

	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			out.WriteString(rest)

			return out.String(), nil
		}

		out.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}")
		if end < 0 {
			return "", ErrExpression.
				With(slog.String("reason", "unclosed ${ expression"),
					slog.String("text", tmpl))
		}

		span := rest[:end]
		rest = rest[end+1:]

		sub, err := e.evalSpan(span, b)
		if err != nil {
			return "", err
		}

		out.WriteString(sub)
	}
}

// evalSpan produces the substitution for one ${span}.
func (e *evaluator) evalSpan(span string, b binding) (string, error) {
	if !strings.Contains(span, "item") {
		// Pass-through literal: not an item reference or expression.
		return "${" + span + "}", nil
	}

	if b.multi() {
		return e.evalMulti(span, b)
	}

	if span == "item" {
		return Normalize(b.value), nil
	}

	result, err := e.run(span, map[string]any{"item": b.value})
	if err != nil {
		return "", err
	}

	return Normalize(result), nil
}

// evalMulti handles spans under named bindings: exact ${item:NAME}
// references substitute directly, anything else is rewritten to a valid
// expression and evaluated.
func (e *evaluator) evalMulti(span string, b binding) (string, error) {
	if rest, ok := strings.CutPrefix(span, "item:"); ok && isIdent(rest) {
		val, bound := b.named[rest]
		if !bound {
			return "", unknownItemRef(rest, b)
		}

		return Normalize(val), nil
	}

	env := make(map[string]any, len(b.named))

	for _, name := range itemRef.FindAllStringSubmatch(span, -1) {
		val, bound := b.named[name[1]]
		if !bound {
			return "", unknownItemRef(name[1], b)
		}

		env["item_"+name[1]] = val
	}

	rewritten := itemRef.ReplaceAllString(span, "item_$1")

	result, err := e.run(rewritten, env)
	if err != nil {
		return "", err
	}

	return Normalize(result), nil
}

// run compiles (or reuses) and evaluates one expression against env.
// Compilation is untyped: item types vary per element, so type checking
// happens at evaluation. All builtins are disabled and only the
// allow-listed function set is callable.
func (e *evaluator) run(source string, env map[string]any) (any, error) {
	program, ok := e.programs[programKey(source, env)]
	if !ok {
		var err error

		program, err = expr.Compile(source, append(
			[]expr.Option{expr.DisableAllBuiltins()},
			sandboxFunctions()...,
		)...)
		if err != nil {
			return nil, ErrExpression.Wrap(err).
				With(slog.String("expression", source))
		}

		e.programs[programKey(source, env)] = program
	}

	result, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrExpression.Wrap(err).
			With(slog.String("expression", source))
	}

	return result, nil
}

func programKey(source string, env map[string]any) string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}

	sort.Strings(names)

	return source + "\x00" + strings.Join(names, ",")
}

func unknownItemRef(name string, b binding) error {
	bound := make([]string, 0, len(b.named))
	for k := range b.named {
		bound = append(bound, k)
	}

	sort.Strings(bound)

	return ErrUnknownItemReference.
		With(slog.String("reference", name),
			slog.String("bound", strings.Join(bound, ",")))
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') && r != '_' {
			return false
		}
	}

	return true
}

// sandboxFunctions returns the allow-listed callables exposed to
// expressions: str, int, float, abs, round, len. Nothing else is callable
// and no ambient environment is reachable.
func sandboxFunctions() []expr.Option {
	return []expr.Option{
		expr.Function("str", func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, ErrExpression.
					With(slog.String("reason", "str expects one argument"))
			}

			return Normalize(args[0]), nil
		}),
		expr.Function("int", func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, ErrExpression.
					With(slog.String("reason", "int expects one argument"))
			}

			return coerceInt(args[0])
		}),
		expr.Function("float", func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, ErrExpression.
					With(slog.String("reason", "float expects one argument"))
			}

			return coerceFloat(args[0])
		}),
		expr.Function("abs", func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, ErrExpression.
					With(slog.String("reason", "abs expects one argument"))
			}

			return numericAbs(args[0])
		}),
		expr.Function("round", func(args ...any) (any, error) {
			return roundValue(args...)
		}),
		expr.Function("len", func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, ErrExpression.
					With(slog.String("reason", "len expects one argument"))
			}

			return lengthOf(args[0])
		}),
	}
}

func coerceInt(v any) (int64, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		return int64(val), nil
	case float32:
		return int64(math.Trunc(float64(val))), nil
	case float64:
		return int64(math.Trunc(val)), nil
	case bool:
		if val {
			return 1, nil
		}

		return 0, nil
	case string:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, ErrExpression.Wrap(err).
				With(slog.String("value", val))
		}

		return i, nil
	default:
		return 0, ErrExpression.
			With(slog.String("reason", "int: unsupported operand"))
	}
}

func coerceFloat(v any) (float64, error) {
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
	case bool:
		if val {
			return 1, nil
		}

		return 0, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, ErrExpression.Wrap(err).
				With(slog.String("value", val))
		}

		return f, nil
	default:
		return 0, ErrExpression.
			With(slog.String("reason", "float: unsupported operand"))
	}
}

func numericAbs(v any) (any, error) {
	switch val := v.(type) {
	case int:
		if val < 0 {
			return int64(-val), nil
		}

		return int64(val), nil
	case int64:
		if val < 0 {
			return -val, nil
		}

		return val, nil
	case uint64:
		return val, nil
	case float32:
		return math.Abs(float64(val)), nil
	case float64:
		return math.Abs(val), nil
	default:
		return nil, ErrExpression.
			With(slog.String("reason", "abs: unsupported operand"))
	}
}

func roundValue(args ...any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, ErrExpression.
			With(slog.String("reason", "round expects one or two arguments"))
	}

	f, err := coerceFloat(args[0])
	if err != nil {
		return nil, err
	}

	if len(args) == 1 {
		return int64(math.Round(f)), nil
	}

	digits, err := coerceInt(args[1])
	if err != nil {
		return nil, err
	}

	scale := math.Pow(10, float64(digits))

	return math.Round(f*scale) / scale, nil
}

func lengthOf(v any) (int64, error) {
	switch val := v.(type) {
	case string:
		return int64(utf8.RuneCountInString(val)), nil
	case []any:
		return int64(len(val)), nil
	case map[string]any:
		return int64(len(val)), nil
	default:
		// Non-string scalars measure their textual form, matching how
		// items render everywhere else.
		return int64(utf8.RuneCountInString(Normalize(val))), nil
	}
}
