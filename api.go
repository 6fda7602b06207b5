package jsv

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Schema is a compiled schema graph: compile once, validate many. It holds
// no per-call state and is safe for concurrent use by any number of
// Validate calls.
type Schema struct {
	root *schemaNode
}

// Compile turns a schema document (a JSON-like value: bool, or map with
// JSON-shaped members) into a reusable Schema. Structural problems in the
// document fail with Issues carrying code invalid_schema; unresolvable
// references with schema_reference_error.
func Compile(doc any, opts ...CompileOption) (*Schema, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	root, err := compile(doc, cfg)
	if err != nil {
		return nil, err
	}
	return &Schema{root: root}, nil
}

// CompileBytes decodes a JSON schema document and compiles it.
func CompileBytes(b []byte, opts ...CompileOption) (*Schema, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, schemaErr(CodeInvalidSchema, "schema document is not valid JSON: %v", err)
	}
	return Compile(doc, opts...)
}

// MustCompile is Compile for schema documents known good at build time,
// typically package-level schema variables.
func MustCompile(doc any, opts ...CompileOption) *Schema {
	s, err := Compile(doc, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateOpt bundles per-call validation options.
type ValidateOpt struct {
	// MaskValues replaces instance literals (and schema const/enum members)
	// in rendered messages with a fixed placeholder. Codes and paths are
	// never masked.
	MaskValues bool
}

// Validate evaluates the instance against the compiled schema. It returns
// nil when the instance is valid, otherwise the complete ordered Issues
// list. The instance is never mutated and evaluation never stops at the
// first violation.
func (s *Schema) Validate(v any, opts ...ValidateOpt) error {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	ec := &evalCtx{
		mask:   opt.MaskValues,
		active: make(map[activeKey]struct{}),
	}
	s.root.eval(ec, v, path{}, newScope())
	if len(ec.issues) > 0 {
		return ec.issues
	}
	return nil
}

// ValidateBytes decodes a JSON instance and validates it. A malformed
// document is a transport problem, not a validation verdict, so it surfaces
// as a plain error rather than Issues.
func (s *Schema) ValidateBytes(b []byte, opts ...ValidateOpt) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("jsv: instance is not valid JSON: %w", err)
	}
	return s.Validate(v, opts...)
}

// IsValid reports whether v conforms to the schema.
func (s *Schema) IsValid(v any) bool { return s.Validate(v) == nil }

// Validate compiles schema and evaluates instance in one call. For repeated
// validation against the same schema prefer Compile plus Schema.Validate:
// this convenience form recompiles every time.
func Validate(schema, instance any, opts ...ValidateOpt) error {
	s, err := Compile(schema)
	if err != nil {
		return err
	}
	return s.Validate(instance, opts...)
}
