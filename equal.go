package jsv

import (
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// numberOf extracts a float64 from any of the numeric shapes a JSON-like
// value can arrive in (goccy decode, YAML decode, hand-built literals).
func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// typeOf maps a value onto its JSON Schema type name.
func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case float64, int, int64, json.Number:
		return "number"
	}
	return "unknown"
}

// typeMatches implements the type keyword's applicability rules: "integer"
// accepts any number with a zero fractional part.
func typeMatches(want string, v any) bool {
	t := typeOf(v)
	if want == t {
		return true
	}
	if want == "integer" && t == "number" {
		return isIntegral(v)
	}
	return false
}

func isIntegral(v any) bool {
	switch n := v.(type) {
	case int, int64:
		return true
	case json.Number:
		if !strings.ContainsAny(n.String(), ".eE") {
			return true
		}
	}
	f, ok := numberOf(v)
	return ok && !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// jsonEqual is JSON-model equality: numbers compare by value across
// representations (1 == 1.0), objects by key set, arrays element-wise.
// Used by const, enum and uniqueItems.
func jsonEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !jsonEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	af, aok := numberOf(a)
	bf, bok := numberOf(b)
	return aok && bok && af == bf
}

// sortedKeys gives the deterministic iteration order used everywhere an
// object's members are traversed.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
