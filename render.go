package jsv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// maskedValue replaces any instance literal in rendered messages when value
// masking is requested. Paths and codes are never masked.
const maskedValue = "value"

// renderValue renders an instance value (or a schema-side const/enum member)
// for message interpolation. Strings come out quoted, numbers in their
// shortest form, composites as compact JSON.
func renderValue(v any, mask bool) string {
	if mask {
		return maskedValue
	}
	switch n := v.(type) {
	case float64:
		return renderNumber(n)
	case json.Number:
		return n.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// renderNumber formats bounds and numeric values without a trailing ".0".
func renderNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// unexpectedList joins already-rendered offending entries for the
// additional/unevaluated message family: "'a' was" / "'a', 'b' were".
func unexpectedList(items []string) string {
	verb := " was"
	if len(items) > 1 {
		verb = " were"
	}
	return strings.Join(items, ", ") + verb
}
