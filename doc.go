// Package jsv validates JSON-like values against JSON Schema documents,
// producing a precise, ordered list of violations with stable machine-readable
// codes, or succeeding silently.
//
// The usual shape is compile-once, validate-many:
//
//	schema := jsv.MustCompile(map[string]any{
//		"type":      "string",
//		"minLength": 5,
//	})
//	if err := schema.Validate(v); err != nil {
//		iss, _ := jsv.AsIssues(err)
//		for _, it := range iss {
//			fmt.Println(it.Code, it.Path, it.Message)
//		}
//	}
//
// A compiled Schema is immutable and safe for concurrent use. Every failure
// surfaces as an Issue whose Code belongs to the closed enumeration in
// issue.go; callers branch on codes, never on message text. Messages render
// through the i18n package and can mask instance values for logs that must
// not leak data (ValidateOpt.MaskValues).
//
// Format and content checkers live in the format package and are injected at
// compile time, so validators with different checker sets coexist. Custom
// predicate keywords register through WithKeyword and report custom_error.
package jsv
