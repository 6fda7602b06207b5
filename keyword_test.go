package jsv_test

import (
	"errors"
	"strings"
	"testing"

	jsv "github.com/jsv-go/jsv"
)

func codesOf(iss jsv.Issues) []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

func TestNumericKeywords(t *testing.T) {
	s := mustCompile(t, `{
		"type": "number",
		"minimum": 0,
		"maximum": 100,
		"exclusiveMinimum": 0,
		"exclusiveMaximum": 100,
		"multipleOf": 5
	}`)
	cases := []struct {
		name  string
		value float64
		codes []string
	}{
		{"in range", 50, nil},
		{"below minimum", -7, []string{jsv.CodeTooSmall, jsv.CodeExclusiveMin, jsv.CodeNotAMultiple}},
		{"at exclusive minimum", 0, []string{jsv.CodeExclusiveMin}},
		{"at exclusive maximum", 100, []string{jsv.CodeExclusiveMax}},
		{"above maximum", 105, []string{jsv.CodeTooLarge, jsv.CodeExclusiveMax}},
		{"not a multiple", 7, []string{jsv.CodeNotAMultiple}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Validate(tc.value)
			if tc.codes == nil {
				if err != nil {
					t.Fatalf("expected valid, got: %v", err)
				}
				return
			}
			iss := issuesOf(t, err)
			if got := codesOf(iss); !equalStrings(got, tc.codes) {
				t.Fatalf("expected codes %v, got %v", tc.codes, got)
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIntegerAcceptsWholeFloats(t *testing.T) {
	s := mustCompile(t, `{"type": "integer"}`)
	if err := s.Validate(float64(5)); err != nil {
		t.Fatalf("5.0 should count as an integer: %v", err)
	}
	iss := issuesOf(t, s.Validate(5.5))
	if iss[0].Code != jsv.CodeInvalidType {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestConstKeyword(t *testing.T) {
	s := mustCompile(t, `{"const": {"k": 1}}`)
	if err := s.Validate(mustJSON(t, `{"k": 1}`)); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, s.Validate(mustJSON(t, `{"k": 2}`)))
	if iss[0].Code != jsv.CodeConstMismatch {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestTupleItemsAndAdditionalItems(t *testing.T) {
	s := mustCompile(t, `{
		"items": [{"type": "string"}, {"type": "number"}],
		"additionalItems": false
	}`)
	if err := s.Validate(mustJSON(t, `["a", 1]`)); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, s.Validate(mustJSON(t, `["a", 1, true]`)))
	if len(iss) != 1 || iss[0].Code != jsv.CodeAdditionalItems || iss[0].Path != "" {
		t.Fatalf("unexpected issues: %v", iss)
	}

	// additionalItems as a schema validates the tail positionally.
	s2 := mustCompile(t, `{
		"items": [{"type": "string"}],
		"additionalItems": {"type": "number"}
	}`)
	iss2 := issuesOf(t, s2.Validate(mustJSON(t, `["a", 1, "nope"]`)))
	if len(iss2) != 1 || iss2[0].Code != jsv.CodeInvalidType || iss2[0].Path != "/2" {
		t.Fatalf("unexpected issues: %v", iss2)
	}
}

func TestContainsKeyword(t *testing.T) {
	s := mustCompile(t, `{"contains": {"type": "number"}}`)
	if err := s.Validate(mustJSON(t, `["a", 1]`)); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, s.Validate(mustJSON(t, `["a", "b"]`)))
	if len(iss) != 1 || iss[0].Code != jsv.CodeNoMatchInContains {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestObjectKeywords(t *testing.T) {
	s := mustCompile(t, `{
		"type": "object",
		"patternProperties": {"^x-": {"type": "string"}},
		"additionalProperties": false,
		"minProperties": 1,
		"maxProperties": 3,
		"propertyNames": {"maxLength": 8}
	}`)
	if err := s.Validate(mustJSON(t, `{"x-a": "ok"}`)); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}

	iss := issuesOf(t, s.Validate(mustJSON(t, `{"x-a": 1, "other": true}`)))
	counts := map[string]int{}
	for _, it := range iss {
		counts[it.Code]++
	}
	if counts[jsv.CodeInvalidType] != 1 || counts[jsv.CodeAdditionalProperties] != 1 {
		t.Fatalf("unexpected issues: %v", iss)
	}

	iss = issuesOf(t, s.Validate(mustJSON(t, `{}`)))
	if len(iss) != 1 || iss[0].Code != jsv.CodeTooFewProperties {
		t.Fatalf("unexpected issues: %v", iss)
	}

	iss = issuesOf(t, s.Validate(mustJSON(t, `{"x-much-too-long": "v"}`)))
	var hasName bool
	for _, it := range iss {
		if it.Code == jsv.CodeInvalidPropertyName && it.Path == "/x-much-too-long" {
			hasName = true
		}
	}
	if !hasName {
		t.Fatalf("expected invalid_property_name: %v", iss)
	}
}

func TestDependentKeywords(t *testing.T) {
	s := mustCompile(t, `{
		"dependentRequired": {"credit_card": ["billing_address"]},
		"dependentSchemas": {"credit_card": {"properties": {"billing_address": {"type": "string"}}}}
	}`)
	if err := s.Validate(mustJSON(t, `{"name": "x"}`)); err != nil {
		t.Fatalf("expected valid without trigger key, got: %v", err)
	}
	if err := s.Validate(mustJSON(t, `{"credit_card": "4111", "billing_address": "1 Main St"}`)); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, s.Validate(mustJSON(t, `{"credit_card": "4111"}`)))
	if len(iss) != 1 || iss[0].Code != jsv.CodeMissingProperty {
		t.Fatalf("unexpected issues: %v", iss)
	}
	iss = issuesOf(t, s.Validate(mustJSON(t, `{"credit_card": "4111", "billing_address": 5}`)))
	if len(iss) != 1 || iss[0].Code != jsv.CodeInvalidType || iss[0].Path != "/billing_address" {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestIfThenElse(t *testing.T) {
	s := mustCompile(t, `{
		"if": {"properties": {"country": {"const": "US"}}, "required": ["country"]},
		"then": {"required": ["zip"]},
		"else": {"required": ["postal_code"]}
	}`)
	if err := s.Validate(mustJSON(t, `{"country": "US", "zip": "12345"}`)); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, s.Validate(mustJSON(t, `{"country": "US"}`)))
	if len(iss) != 1 || iss[0].Code != jsv.CodeMissingProperty || !strings.Contains(iss[0].Message, "zip") {
		t.Fatalf("unexpected issues: %v", iss)
	}
	iss = issuesOf(t, s.Validate(mustJSON(t, `{"country": "DE"}`)))
	if len(iss) != 1 || !strings.Contains(iss[0].Message, "postal_code") {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestFormatKeyword(t *testing.T) {
	s := mustCompile(t, `{"format": "email"}`)
	if err := s.Validate("user@example.com"); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, s.Validate("not-an-email"))
	if len(iss) != 1 || iss[0].Code != jsv.CodeFormatMismatch {
		t.Fatalf("unexpected issues: %v", iss)
	}
	// Unknown formats never fail.
	s2 := mustCompile(t, `{"format": "no-such-format"}`)
	if err := s2.Validate("anything"); err != nil {
		t.Fatalf("unknown format must pass, got: %v", err)
	}
}

func TestContentKeywords(t *testing.T) {
	enc := mustCompile(t, `{"contentEncoding": "base64"}`)
	if err := enc.Validate("aGVsbG8="); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, enc.Validate("!!not base64!!"))
	if len(iss) != 1 || iss[0].Code != jsv.CodeInvalidContentEncoding {
		t.Fatalf("unexpected issues: %v", iss)
	}

	mt := mustCompile(t, `{"contentMediaType": "application/json"}`)
	if err := mt.Validate(`{"ok": true}`); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss = issuesOf(t, mt.Validate(`{"ok":`))
	if len(iss) != 1 || iss[0].Code != jsv.CodeInvalidMediaType {
		t.Fatalf("unexpected issues: %v", iss)
	}

	// The media-type check sees the decoded form: base64("{}") is valid JSON.
	both := mustCompile(t, `{"contentEncoding": "base64", "contentMediaType": "application/json"}`)
	if err := both.Validate("e30="); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss = issuesOf(t, both.Validate("aGVsbG8="))
	if len(iss) != 1 || iss[0].Code != jsv.CodeInvalidMediaType {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestInvalidUTF8Instance(t *testing.T) {
	s := mustCompile(t, `{"minLength": 1}`)
	iss := issuesOf(t, s.Validate(string([]byte{0xff, 0xfe})))
	var hasUTF8 bool
	for _, it := range iss {
		if it.Code == jsv.CodeInvalidUTF8 {
			hasUTF8 = true
		}
	}
	if !hasUTF8 {
		t.Fatalf("expected invalid_utf8: %v", iss)
	}
}

func TestBooleanSchemas(t *testing.T) {
	always, err := jsv.Compile(true)
	if err != nil {
		t.Fatalf("compile true: %v", err)
	}
	if err := always.Validate(mustJSON(t, `{"anything": [1, 2]}`)); err != nil {
		t.Fatalf("true schema must accept everything: %v", err)
	}
	never, err := jsv.Compile(false)
	if err != nil {
		t.Fatalf("compile false: %v", err)
	}
	iss := issuesOf(t, never.Validate("x"))
	if len(iss) != 1 || iss[0].Code != jsv.CodeDisallowedValue {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestCustomKeyword(t *testing.T) {
	even := func(cfg, v any) error {
		if on, _ := cfg.(bool); !on {
			return nil
		}
		if f, ok := v.(float64); ok && int64(f)%2 != 0 {
			return errors.New("value must be even")
		}
		return nil
	}
	s, err := jsv.CompileBytes([]byte(`{"type": "number", "x-even": true}`), jsv.WithKeyword("x-even", even))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := s.Validate(float64(4)); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
	iss := issuesOf(t, s.Validate(float64(3)))
	if len(iss) != 1 || iss[0].Code != jsv.CodeCustomError || iss[0].Message != "value must be even" {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestRegexBacktrackLimit(t *testing.T) {
	s := mustCompile(t, `{"type": "string", "pattern": "^(a+)+$"}`)
	adversarial := strings.Repeat("a", 64) + "!"
	iss := issuesOf(t, s.Validate(adversarial))
	if len(iss) != 1 || iss[0].Code != jsv.CodeRegexBacktrackLimit {
		t.Fatalf("expected regex_backtrack_limit, got: %v", iss)
	}
}
