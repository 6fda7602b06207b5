package jsv

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention).
// The string values are a stable cross-boundary contract: callers branch on
// them programmatically, so they never change between releases.
const (
	CodeInvalidType            = "invalid_type"
	CodeTooSmall               = "too_small"
	CodeTooLarge               = "too_large"
	CodeExclusiveMin           = "exclusive_min"
	CodeExclusiveMax           = "exclusive_max"
	CodeNotAMultiple           = "not_a_multiple"
	CodeTooShort               = "too_short"
	CodeTooLong                = "too_long"
	CodePatternMismatch        = "pattern_mismatch"
	CodeFormatMismatch         = "format_mismatch"
	CodeInvalidContentEncoding = "invalid_content_encoding"
	CodeInvalidMediaType       = "invalid_media_type"
	CodeInvalidUTF8            = "invalid_utf8"
	CodeAdditionalItems        = "additional_items"
	CodeTooFewItems            = "too_few_items"
	CodeTooManyItems           = "too_many_items"
	CodeDuplicateItems         = "duplicate_items"
	CodeNoMatchInContains      = "no_match_in_contains"
	CodeAdditionalProperties   = "additional_properties"
	CodeMissingProperty        = "missing_property"
	CodeTooFewProperties       = "too_few_properties"
	CodeTooManyProperties      = "too_many_properties"
	CodeInvalidPropertyName    = "invalid_property_name"
	CodeConstMismatch          = "const_mismatch"
	CodeEnumMismatch           = "enum_mismatch"
	CodeAnyOfMismatch          = "any_of_mismatch"
	CodeOneOfNoMatch           = "one_of_no_match"
	CodeOneOfMultipleMatches   = "one_of_multiple_matches"
	CodeNegatedSchemaMatch     = "negated_schema_match"
	CodeUnevaluatedItems       = "unevaluated_items"
	CodeUnevaluatedProperties  = "unevaluated_properties"
	CodeCustomError            = "custom_error"
	CodeRegexBacktrackLimit    = "regex_backtrack_limit"
	CodeDisallowedValue        = "disallowed_value"
	CodeInvalidSchema          = "invalid_schema"
	CodeSchemaReferenceError   = "schema_reference_error"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string `json:"path"`    // JSON Pointer (for example: /items/2/price).
	Code    string `json:"code"`    // One of the codes listed above.
	Message string `json:"message"` //
	// Params carries structured parameters (e.g., {"limit":"10", "value":"42"})
	// for i18n and observability.
	Params map[string]any `json:"params,omitempty"`
}

// Issues is an ordered collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
