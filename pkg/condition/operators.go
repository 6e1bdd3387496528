package condition

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// toNumber coerces a value to float64. Values that have no numeric reading yield NaN,
// which makes every ordered comparison false.
func toNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return math.NaN()
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// isNumeric reports whether v is a Go numeric kind.
func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// toString renders a value for substring comparisons. Numbers use the shortest
// representation, arrays are comma-joined and nil is empty.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	}
	if isNumeric(v) {
		return strconv.FormatFloat(toNumber(v), 'f', -1, 64)
	}
	if items, ok := asSlice(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = toString(item)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// strictEqual compares without coercion. Numbers of any Go kind compare by value,
// other scalars must share type and value, and composites are never equal.
func strictEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if isNumeric(left) || isNumeric(right) {
		if !isNumeric(left) || !isNumeric(right) {
			return false
		}
		return toNumber(left) == toNumber(right)
	}
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		return ok && l == r
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	}
	return false
}

// asSlice exposes any slice or array as []any.
func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func inArray(list, value any) (found bool, ok bool) {
	items, ok := asSlice(list)
	if !ok {
		return false, false
	}
	for _, item := range items {
		if strictEqual(item, value) {
			return true, true
		}
	}
	return false, true
}
