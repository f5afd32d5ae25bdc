package meta

import (
	"fmt"
	"math"
	"strconv"
)

// Normalize canonicalizes a scalar to the textual form used in the output
// document and as expression substitution results.
//
// nil becomes "null", booleans become "true"/"false", numbers whose value
// equals their integer truncation render without a fractional part, other
// numbers render in their shortest decimal form, and strings pass through
// unchanged. Strings are never re-normalized, so literal text that happens
// to look numeric is preserved as written.
func Normalize(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"

	case bool:
		return strconv.FormatBool(val)

	case string:
		return val

	case int:
		return strconv.Itoa(val)

	case int64:
		return strconv.FormatInt(val, 10)

	case uint64:
		return strconv.FormatUint(val, 10)

	case float32:
		return normalizeFloat(float64(val))

	case float64:
		return normalizeFloat(val)

	default:
		return fmt.Sprintf("%v", val)
	}
}

// normalizeFloat demotes whole-valued floats to integer form.
func normalizeFloat(f float64) string {
	if wholeInt64(f) {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// demoteWhole converts a whole-valued float to its integer representation,
// leaving fractional values untouched. Range walks use it so that 2.0
// renders (and binds) as the integer 2.
func demoteWhole(f float64) any {
	if wholeInt64(f) {
		return int64(f)
	}

	return f
}

// wholeInt64 reports whether f is a whole value that fits in int64.
// Magnitudes at or beyond 1<<63 stay floats; converting them would
// overflow.
func wholeInt64(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0) &&
		f >= math.MinInt64 && f < math.MaxInt64
}
