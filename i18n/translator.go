package i18n

import "fmt"

// Translator retrieves localized messages for Issue codes.
// data provides the structural facts to embed in the message (for example,
// "limit" or "property"); value-bearing entries arrive pre-rendered so the
// caller's masking decision is already applied.
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	get := func(k string) string {
		if data == nil {
			return ""
		}
		return data[k]
	}
	if t.lang == "ja" {
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "missing_property":
			return "必須プロパティが不足しています"
		case "too_small":
			return "小さすぎます"
		case "too_large":
			return "大きすぎます"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		case "enum_mismatch":
			return "許可されていない値です"
		case "pattern_mismatch":
			return "パターンに一致しません"
		case "invalid_schema":
			return "スキーマが不正です"
		}
		// Codes without a Japanese entry fall through to the English templates.
	}
	switch code {
	case "invalid_type":
		return fmt.Sprintf("%s is not of type %s", get("value"), get("type"))
	case "too_small":
		return fmt.Sprintf("%s is less than the minimum of %s", get("value"), get("limit"))
	case "too_large":
		return fmt.Sprintf("%s is greater than the maximum of %s", get("value"), get("limit"))
	case "exclusive_min":
		return fmt.Sprintf("%s is less than or equal to the exclusive minimum of %s", get("value"), get("limit"))
	case "exclusive_max":
		return fmt.Sprintf("%s is greater than or equal to the exclusive maximum of %s", get("value"), get("limit"))
	case "not_a_multiple":
		return fmt.Sprintf("%s is not a multiple of %s", get("value"), get("multiple"))
	case "too_short":
		return fmt.Sprintf("%s is shorter than %s characters", get("value"), get("limit"))
	case "too_long":
		return fmt.Sprintf("%s is longer than %s characters", get("value"), get("limit"))
	case "pattern_mismatch":
		return fmt.Sprintf("%s does not match %q", get("value"), get("pattern"))
	case "format_mismatch":
		return fmt.Sprintf("%s is not a %q", get("value"), get("format"))
	case "invalid_content_encoding":
		return fmt.Sprintf("%s is not encoded using %q", get("value"), get("encoding"))
	case "invalid_media_type":
		return fmt.Sprintf("%s is not valid under media type %q", get("value"), get("mediaType"))
	case "invalid_utf8":
		return "string contains invalid UTF-8"
	case "additional_items":
		return fmt.Sprintf("Additional items are not allowed (%s unexpected)", get("extras"))
	case "too_few_items":
		return fmt.Sprintf("%s has less than %s items", get("value"), get("limit"))
	case "too_many_items":
		return fmt.Sprintf("%s has more than %s items", get("value"), get("limit"))
	case "duplicate_items":
		return fmt.Sprintf("%s has non-unique elements", get("value"))
	case "no_match_in_contains":
		return fmt.Sprintf("None of %s are valid under the given schema", get("value"))
	case "additional_properties":
		return fmt.Sprintf("Additional properties are not allowed (%s unexpected)", get("extras"))
	case "missing_property":
		return fmt.Sprintf("%s is a required property", get("property"))
	case "too_few_properties":
		return fmt.Sprintf("%s has less than %s properties", get("value"), get("limit"))
	case "too_many_properties":
		return fmt.Sprintf("%s has more than %s properties", get("value"), get("limit"))
	case "invalid_property_name":
		return fmt.Sprintf("%s is not a valid property name", get("property"))
	case "const_mismatch":
		return fmt.Sprintf("%s was expected", get("expected"))
	case "enum_mismatch":
		return fmt.Sprintf("%s is not one of %s", get("value"), get("choices"))
	case "any_of_mismatch":
		return fmt.Sprintf("%s is not valid under any of the schemas listed in the 'anyOf' keyword", get("value"))
	case "one_of_no_match":
		return fmt.Sprintf("%s is not valid under any of the schemas listed in the 'oneOf' keyword", get("value"))
	case "one_of_multiple_matches":
		return fmt.Sprintf("%s is valid under more than one of the schemas listed in the 'oneOf' keyword", get("value"))
	case "negated_schema_match":
		return fmt.Sprintf("%s must not be valid under the given schema", get("value"))
	case "unevaluated_items":
		return fmt.Sprintf("Unevaluated items are not allowed (%s unexpected)", get("extras"))
	case "unevaluated_properties":
		return fmt.Sprintf("Unevaluated properties are not allowed (%s unexpected)", get("extras"))
	case "custom_error":
		if d := get("detail"); d != "" {
			return d
		}
		return "custom check failed"
	case "regex_backtrack_limit":
		return fmt.Sprintf("pattern %q exceeded the backtracking limit", get("pattern"))
	case "disallowed_value":
		return fmt.Sprintf("False schema does not allow %s", get("value"))
	case "invalid_schema":
		return fmt.Sprintf("Schema compilation error: %s", get("detail"))
	case "schema_reference_error":
		return fmt.Sprintf("Schema compilation error: unresolvable reference %s", get("detail"))
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
