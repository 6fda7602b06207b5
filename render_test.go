package jsv

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestRenderValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{float64(17), "17"},
		{float64(2.5), "2.5"},
		{"hello", `"hello"`},
		{true, "true"},
		{nil, "null"},
		{[]any{float64(1), "a"}, `[1,"a"]`},
		{json.Number("42"), "42"},
	}
	for _, tc := range cases {
		if got := renderValue(tc.in, false); got != tc.want {
			t.Errorf("renderValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := renderValue("secret", true); got != maskedValue {
		t.Errorf("masked render = %q", got)
	}
}

func TestUnexpectedList(t *testing.T) {
	if got := unexpectedList([]string{"'a'"}); got != "'a' was" {
		t.Errorf("got %q", got)
	}
	if got := unexpectedList([]string{"'a'", "'b'"}); got != "'a', 'b' were" {
		t.Errorf("got %q", got)
	}
}

func TestJSONEqual(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{float64(1), int64(1), true},
		{float64(1), json.Number("1.0"), true},
		{float64(1), float64(2), false},
		{"a", "a", true},
		{"a", float64(1), false},
		{[]any{float64(1)}, []any{int64(1)}, true},
		{map[string]any{"k": float64(1)}, map[string]any{"k": int64(1)}, true},
		{map[string]any{"k": float64(1)}, map[string]any{"k": float64(1), "x": nil}, false},
		{nil, nil, true},
		{true, true, true},
		{true, false, false},
	}
	for _, tc := range cases {
		if got := jsonEqual(tc.a, tc.b); got != tc.want {
			t.Errorf("jsonEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTypeMatches(t *testing.T) {
	if !typeMatches("integer", float64(5)) {
		t.Errorf("5.0 must match integer")
	}
	if typeMatches("integer", float64(5.5)) {
		t.Errorf("5.5 must not match integer")
	}
	if !typeMatches("number", float64(5.5)) {
		t.Errorf("5.5 must match number")
	}
	if typeMatches("boolean", "true") {
		t.Errorf("string must not match boolean")
	}
	if !typeMatches("null", nil) {
		t.Errorf("nil must match null")
	}
}
