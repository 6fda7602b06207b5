package jsv

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/jsv-go/jsv/format"
	"github.com/jsv-go/jsv/i18n"
	"github.com/jsv-go/jsv/internal/regexguard"
)

// compileConfig is the constructor-injected configuration: checker
// registries, custom keywords, and extra schema resources. There is no
// process-wide registry; two Schemas compiled with different configs are
// fully independent.
type compileConfig struct {
	formats   format.Registry
	content   format.ContentRegistry
	keywords  map[string]KeywordFunc
	resources []resource
}

type resource struct {
	id  string
	doc any
}

// CompileOption adjusts schema compilation.
type CompileOption func(*compileConfig)

// WithFormats replaces the format checker registry used for the format
// keyword. Pass format.Default() extended with custom entries to add checks.
func WithFormats(r format.Registry) CompileOption {
	return func(c *compileConfig) { c.formats = r }
}

// WithContent replaces the content encoding/media-type checker registry.
func WithContent(r format.ContentRegistry) CompileOption {
	return func(c *compileConfig) { c.content = r }
}

// WithKeyword registers a custom predicate keyword. Schemas using name invoke
// fn during evaluation; a non-nil error reports code custom_error.
func WithKeyword(name string, fn KeywordFunc) CompileOption {
	return func(c *compileConfig) {
		if c.keywords == nil {
			c.keywords = make(map[string]KeywordFunc)
		}
		c.keywords[name] = fn
	}
}

// WithResource registers an additional schema document under id. References
// from the main document (or other resources) resolve against it; the
// resource is compiled into the same graph.
func WithResource(id string, doc any) CompileOption {
	return func(c *compileConfig) { c.resources = append(c.resources, resource{id: id, doc: doc}) }
}

func defaultConfig() *compileConfig {
	return &compileConfig{
		formats: format.Default(),
		content: format.DefaultContent(),
	}
}

// compiler holds the two-pass state: pass one registers every subschema
// location under its canonical identity and creates placeholder nodes, pass
// two compiles keyword evaluators and resolves $ref against the finished
// registry. Placeholders make forward and cyclic references free.
type compiler struct {
	cfg     *compileConfig
	nodes   map[string]*schemaNode // canonical identity -> node
	alias   map[string]string      // $id / $anchor URI -> canonical identity
	pending []*pendingCompile
}

type pendingCompile struct {
	node *schemaNode
	raw  map[string]any
	res  int
	base string // base URI after applying this schema's own $id
	ptr  string
}

// canonical builds the node identity: resource ordinal plus JSON Pointer
// within that resource.
func canonical(res int, ptr string) string {
	return strconv.Itoa(res) + "#" + ptr
}

func splitCanonical(key string) (int, string) {
	i := strings.Index(key, "#")
	res, _ := strconv.Atoi(key[:i])
	return res, key[i+1:]
}

// schemaErr builds the fatal compile-error value: a single-issue list with
// path "/", matching the error surface instance validation uses.
func schemaErr(code, formatStr string, args ...any) error {
	detail := fmt.Sprintf(formatStr, args...)
	data := map[string]string{"detail": detail}
	return Issues{{
		Path:    "/",
		Code:    code,
		Message: i18n.T(code, data),
		Params:  map[string]any{"detail": detail},
	}}
}

func compile(doc any, cfg *compileConfig) (*schemaNode, error) {
	c := &compiler{
		cfg:   cfg,
		nodes: make(map[string]*schemaNode),
		alias: make(map[string]string),
	}
	if err := c.register(doc, 0, "", ""); err != nil {
		return nil, err
	}
	for i, res := range cfg.resources {
		if res.id != "" {
			c.alias[res.id] = canonical(i+1, "")
		}
		if err := c.register(res.doc, i+1, res.id, ""); err != nil {
			return nil, err
		}
	}
	for _, pc := range c.pending {
		if err := c.compileNode(pc); err != nil {
			return nil, err
		}
	}
	return c.nodes[canonical(0, "")], nil
}

// register is pass one: depth-first walk of every location that holds a
// schema, creating a placeholder node per location and recording $id/$anchor
// aliases. Identity-based registration means each distinct schema object is
// compiled exactly once even when referenced from many places.
func (c *compiler) register(doc any, res int, base, ptr string) error {
	key := canonical(res, ptr)
	switch m := doc.(type) {
	case bool:
		b := m
		c.nodes[key] = &schemaNode{id: key, always: &b}
		return nil
	case map[string]any:
		node := &schemaNode{id: key}
		c.nodes[key] = node
		base2 := base
		if idv, ok := m["$id"]; ok {
			s, ok := idv.(string)
			if !ok {
				return schemaErr(CodeInvalidSchema, "$id must be a string")
			}
			abs, err := resolveURI(base, s)
			if err != nil {
				return schemaErr(CodeInvalidSchema, "invalid $id %q", s)
			}
			base2 = abs
			c.alias[abs] = key
		}
		if av, ok := m["$anchor"]; ok {
			s, ok := av.(string)
			if !ok {
				return schemaErr(CodeInvalidSchema, "$anchor must be a string")
			}
			c.alias[stripFragment(base2)+"#"+s] = key
		}
		c.pending = append(c.pending, &pendingCompile{node: node, raw: m, res: res, base: base2, ptr: ptr})
		return c.walkChildren(m, res, base2, ptr)
	default:
		at := ptr
		if at == "" {
			at = "(root)"
		}
		return schemaErr(CodeInvalidSchema, "schema at %s must be an object or boolean", at)
	}
}

func (c *compiler) walkChildren(m map[string]any, res int, base, ptr string) error {
	one := func(kw string) error {
		v, ok := m[kw]
		if !ok {
			return nil
		}
		return c.register(v, res, base, ptr+"/"+kw)
	}
	list := func(kw string) error {
		v, ok := m[kw]
		if !ok {
			return nil
		}
		arr, ok := v.([]any)
		if !ok {
			return schemaErr(CodeInvalidSchema, "%s must be an array of schemas", kw)
		}
		if len(arr) == 0 {
			return schemaErr(CodeInvalidSchema, "%s must not be empty", kw)
		}
		for i, el := range arr {
			if err := c.register(el, res, base, ptr+"/"+kw+"/"+strconv.Itoa(i)); err != nil {
				return err
			}
		}
		return nil
	}
	named := func(kw string) error {
		v, ok := m[kw]
		if !ok {
			return nil
		}
		mm, ok := v.(map[string]any)
		if !ok {
			return schemaErr(CodeInvalidSchema, "%s must be an object", kw)
		}
		for _, name := range sortedKeys(mm) {
			if err := c.register(mm[name], res, base, ptr+"/"+kw+"/"+escapeToken(name)); err != nil {
				return err
			}
		}
		return nil
	}

	// items is either one schema or a positional tuple.
	if v, ok := m["items"]; ok {
		if arr, isTuple := v.([]any); isTuple {
			for i, el := range arr {
				if err := c.register(el, res, base, ptr+"/items/"+strconv.Itoa(i)); err != nil {
					return err
				}
			}
		} else if err := c.register(v, res, base, ptr+"/items"); err != nil {
			return err
		}
	}
	for _, kw := range []string{
		"additionalItems", "contains", "additionalProperties", "propertyNames",
		"not", "if", "then", "else", "unevaluatedItems", "unevaluatedProperties",
	} {
		if err := one(kw); err != nil {
			return err
		}
	}
	for _, kw := range []string{"allOf", "anyOf", "oneOf"} {
		if err := list(kw); err != nil {
			return err
		}
	}
	for _, kw := range []string{"properties", "patternProperties", "dependentSchemas", "$defs", "definitions"} {
		if err := named(kw); err != nil {
			return err
		}
	}
	return nil
}

// subnode fetches the placeholder registered for a child location. The walk
// and the keyword compilers visit the same locations, so a miss is a bug,
// not an input error.
func (c *compiler) subnode(pc *pendingCompile, tokens ...string) *schemaNode {
	ptr := pc.ptr
	for _, t := range tokens {
		ptr += "/" + escapeToken(t)
	}
	return c.nodes[canonical(pc.res, ptr)]
}

// compileNode is pass two for one schema object: each present keyword is
// compiled into its evaluator variant, in the fixed order evaluation will
// use. The variant set is closed; only customEval is open to callers.
func (c *compiler) compileNode(pc *pendingCompile) error {
	raw := pc.raw
	var evals []evaluator
	add := func(e evaluator) { evals = append(evals, e) }

	// $ref first: the referenced schema's constraints apply alongside any
	// sibling keywords.
	if v, ok := raw["$ref"]; ok {
		s, ok := v.(string)
		if !ok {
			return schemaErr(CodeInvalidSchema, "$ref must be a string")
		}
		target, err := c.resolveRef(pc, s)
		if err != nil {
			return err
		}
		add(refEval{target: target})
	}

	if v, ok := raw["type"]; ok {
		e, err := compileType(v)
		if err != nil {
			return err
		}
		add(e)
	}

	// numeric
	if v, ok := raw["minimum"]; ok {
		f, err := numConfig("minimum", v)
		if err != nil {
			return err
		}
		add(minimumEval{limit: f})
	}
	if v, ok := raw["maximum"]; ok {
		f, err := numConfig("maximum", v)
		if err != nil {
			return err
		}
		add(maximumEval{limit: f})
	}
	if v, ok := raw["exclusiveMinimum"]; ok {
		f, err := numConfig("exclusiveMinimum", v)
		if err != nil {
			return err
		}
		add(exclusiveMinEval{limit: f})
	}
	if v, ok := raw["exclusiveMaximum"]; ok {
		f, err := numConfig("exclusiveMaximum", v)
		if err != nil {
			return err
		}
		add(exclusiveMaxEval{limit: f})
	}
	if v, ok := raw["multipleOf"]; ok {
		f, err := numConfig("multipleOf", v)
		if err != nil {
			return err
		}
		if f <= 0 {
			return schemaErr(CodeInvalidSchema, "multipleOf must be greater than zero")
		}
		add(multipleOfEval{factor: f})
	}

	// string; a UTF-8 gate runs once ahead of any string-facing keyword
	if hasAny(raw, "minLength", "maxLength", "pattern", "format", "contentEncoding", "contentMediaType") {
		add(utf8Eval{})
	}
	if v, ok := raw["minLength"]; ok {
		n, err := nonNegInt("minLength", v)
		if err != nil {
			return err
		}
		add(minLengthEval{limit: n})
	}
	if v, ok := raw["maxLength"]; ok {
		n, err := nonNegInt("maxLength", v)
		if err != nil {
			return err
		}
		add(maxLengthEval{limit: n})
	}
	if v, ok := raw["pattern"]; ok {
		s, ok := v.(string)
		if !ok {
			return schemaErr(CodeInvalidSchema, "pattern must be a string")
		}
		pat, err := regexguard.Compile(s)
		if err != nil {
			return schemaErr(CodeInvalidSchema, "invalid pattern %q: %v", s, err)
		}
		add(patternEval{pat: pat})
	}
	if v, ok := raw["format"]; ok {
		s, ok := v.(string)
		if !ok {
			return schemaErr(CodeInvalidSchema, "format must be a string")
		}
		if fn, known := c.cfg.formats[s]; known && fn != nil {
			add(formatEval{name: s, fn: fn})
		}
		// Unknown formats are annotations, not failures.
	}
	if hasAny(raw, "contentEncoding", "contentMediaType") {
		e, err := c.compileContent(raw)
		if err != nil {
			return err
		}
		add(e)
	}

	// array
	if v, ok := raw["items"]; ok {
		if arr, isTuple := v.([]any); isTuple {
			tuple := make([]*schemaNode, len(arr))
			for i := range arr {
				tuple[i] = c.subnode(pc, "items", strconv.Itoa(i))
			}
			add(itemsEval{tuple: tuple})
			if _, ok := raw["additionalItems"]; ok {
				add(additionalItemsEval{prefix: len(arr), node: c.subnode(pc, "additionalItems")})
			}
		} else {
			add(itemsEval{single: c.subnode(pc, "items")})
		}
	}
	if v, ok := raw["minItems"]; ok {
		n, err := nonNegInt("minItems", v)
		if err != nil {
			return err
		}
		add(minItemsEval{limit: n})
	}
	if v, ok := raw["maxItems"]; ok {
		n, err := nonNegInt("maxItems", v)
		if err != nil {
			return err
		}
		add(maxItemsEval{limit: n})
	}
	if v, ok := raw["uniqueItems"]; ok {
		b, ok := v.(bool)
		if !ok {
			return schemaErr(CodeInvalidSchema, "uniqueItems must be a boolean")
		}
		if b {
			add(uniqueItemsEval{})
		}
	}
	if _, ok := raw["contains"]; ok {
		add(containsEval{node: c.subnode(pc, "contains")})
	}

	// object
	var knownProps map[string]struct{}
	var patterns []patEntry
	if v, ok := raw["properties"]; ok {
		mm := v.(map[string]any) // shape checked during the walk
		entries := make([]propEntry, 0, len(mm))
		knownProps = make(map[string]struct{}, len(mm))
		for _, name := range sortedKeys(mm) {
			knownProps[name] = struct{}{}
			entries = append(entries, propEntry{name: name, node: c.subnode(pc, "properties", name)})
		}
		add(propertiesEval{entries: entries})
	}
	if v, ok := raw["patternProperties"]; ok {
		mm := v.(map[string]any)
		for _, src := range sortedKeys(mm) {
			pat, err := regexguard.Compile(src)
			if err != nil {
				return schemaErr(CodeInvalidSchema, "invalid patternProperties pattern %q: %v", src, err)
			}
			patterns = append(patterns, patEntry{src: src, pat: pat, node: c.subnode(pc, "patternProperties", src)})
		}
		add(patternPropertiesEval{entries: patterns})
	}
	if _, ok := raw["additionalProperties"]; ok {
		add(additionalPropertiesEval{
			known:    knownProps,
			patterns: patterns,
			node:     c.subnode(pc, "additionalProperties"),
		})
	}
	if v, ok := raw["required"]; ok {
		names, err := stringList("required", v)
		if err != nil {
			return err
		}
		add(requiredEval{names: names})
	}
	if v, ok := raw["minProperties"]; ok {
		n, err := nonNegInt("minProperties", v)
		if err != nil {
			return err
		}
		add(minPropertiesEval{limit: n})
	}
	if v, ok := raw["maxProperties"]; ok {
		n, err := nonNegInt("maxProperties", v)
		if err != nil {
			return err
		}
		add(maxPropertiesEval{limit: n})
	}
	if _, ok := raw["propertyNames"]; ok {
		add(propertyNamesEval{node: c.subnode(pc, "propertyNames")})
	}

	// value
	if v, ok := raw["const"]; ok {
		add(constEval{expected: v})
	}
	if v, ok := raw["enum"]; ok {
		arr, ok := v.([]any)
		if !ok {
			return schemaErr(CodeInvalidSchema, "enum must be an array")
		}
		add(enumEval{choices: arr})
	}

	// composition
	if v, ok := raw["allOf"]; ok {
		add(allOfEval{nodes: c.subnodeList(pc, "allOf", v)})
	}
	if v, ok := raw["anyOf"]; ok {
		add(anyOfEval{nodes: c.subnodeList(pc, "anyOf", v)})
	}
	if v, ok := raw["oneOf"]; ok {
		add(oneOfEval{nodes: c.subnodeList(pc, "oneOf", v)})
	}
	if _, ok := raw["not"]; ok {
		add(notEval{node: c.subnode(pc, "not")})
	}

	// conditional; then/else without if are ignored per the draft
	if _, ok := raw["if"]; ok {
		e := ifEval{ifN: c.subnode(pc, "if")}
		if _, ok := raw["then"]; ok {
			e.thenN = c.subnode(pc, "then")
		}
		if _, ok := raw["else"]; ok {
			e.elseN = c.subnode(pc, "else")
		}
		add(e)
	}
	if v, ok := raw["dependentRequired"]; ok {
		e, err := compileDependentRequired(v)
		if err != nil {
			return err
		}
		add(e)
	}
	if v, ok := raw["dependentSchemas"]; ok {
		mm := v.(map[string]any)
		deps := make([]depSchema, 0, len(mm))
		for _, key := range sortedKeys(mm) {
			deps = append(deps, depSchema{key: key, node: c.subnode(pc, "dependentSchemas", key)})
		}
		add(dependentSchemasEval{deps: deps})
	}

	// custom keywords, in name order
	if len(c.cfg.keywords) > 0 {
		names := make([]string, 0, len(c.cfg.keywords))
		for name := range c.cfg.keywords {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if cfg, present := raw[name]; present {
				add(customEval{name: name, cfg: cfg, fn: c.cfg.keywords[name]})
			}
		}
	}

	// annotation-dependent keywords run last so every sibling applicator has
	// already recorded its coverage
	if _, ok := raw["unevaluatedItems"]; ok {
		add(unevaluatedItemsEval{node: c.subnode(pc, "unevaluatedItems")})
	}
	if _, ok := raw["unevaluatedProperties"]; ok {
		add(unevaluatedPropertiesEval{node: c.subnode(pc, "unevaluatedProperties")})
	}

	pc.node.evals = evals
	return nil
}

func (c *compiler) subnodeList(pc *pendingCompile, kw string, v any) []*schemaNode {
	arr := v.([]any) // shape checked during the walk
	nodes := make([]*schemaNode, len(arr))
	for i := range arr {
		nodes[i] = c.subnode(pc, kw, strconv.Itoa(i))
	}
	return nodes
}

func (c *compiler) compileContent(raw map[string]any) (evaluator, error) {
	var e contentEval
	if v, ok := raw["contentEncoding"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, schemaErr(CodeInvalidSchema, "contentEncoding must be a string")
		}
		e.encoding = s
		e.decode = c.cfg.content.Encodings[s] // nil for unknown encodings: pass
	}
	if v, ok := raw["contentMediaType"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, schemaErr(CodeInvalidSchema, "contentMediaType must be a string")
		}
		e.mediaType = s
		e.check = c.cfg.content.MediaTypes[s]
	}
	return e, nil
}

// resolveRef maps a $ref string onto its compiled node: pointer fragments
// resolve within the referring resource, anchors against the current base,
// and full URI references against registered $id values and resources.
func (c *compiler) resolveRef(pc *pendingCompile, ref string) (*schemaNode, error) {
	if ref == "" {
		return nil, schemaErr(CodeSchemaReferenceError, "%q", ref)
	}
	if ref[0] == '#' {
		frag := ref[1:]
		switch {
		case frag == "":
			if pc.base != "" {
				if key, ok := c.alias[pc.base]; ok {
					return c.nodes[key], nil
				}
			}
			if n := c.nodes[canonical(pc.res, "")]; n != nil {
				return n, nil
			}
		case frag[0] == '/':
			if dec, err := url.PathUnescape(frag); err == nil {
				frag = dec
			}
			if n := c.nodes[canonical(pc.res, frag)]; n != nil {
				return n, nil
			}
		default:
			if key, ok := c.alias[stripFragment(pc.base)+"#"+frag]; ok {
				return c.nodes[key], nil
			}
		}
		return nil, schemaErr(CodeSchemaReferenceError, "%q", ref)
	}
	abs, err := resolveURI(pc.base, ref)
	if err != nil {
		return nil, schemaErr(CodeSchemaReferenceError, "%q", ref)
	}
	absBase, frag, _ := strings.Cut(abs, "#")
	if key, ok := c.alias[absBase]; ok {
		switch {
		case frag == "":
			return c.nodes[key], nil
		case frag[0] == '/':
			if dec, err := url.PathUnescape(frag); err == nil {
				frag = dec
			}
			res, ptr := splitCanonical(key)
			if n := c.nodes[canonical(res, ptr+frag)]; n != nil {
				return n, nil
			}
		default:
			if k2, ok := c.alias[absBase+"#"+frag]; ok {
				return c.nodes[k2], nil
			}
		}
	}
	return nil, schemaErr(CodeSchemaReferenceError, "%q", ref)
}

// ---- keyword config helpers ----

func compileType(v any) (evaluator, error) {
	switch t := v.(type) {
	case string:
		if !validTypeName(t) {
			return nil, schemaErr(CodeInvalidSchema, "unknown type %q", t)
		}
		return typeEval{types: []string{t}}, nil
	case []any:
		if len(t) == 0 {
			return nil, schemaErr(CodeInvalidSchema, "type array must not be empty")
		}
		names := make([]string, len(t))
		for i, el := range t {
			s, ok := el.(string)
			if !ok || !validTypeName(s) {
				return nil, schemaErr(CodeInvalidSchema, "type entries must be type names")
			}
			names[i] = s
		}
		return typeEval{types: names}, nil
	default:
		return nil, schemaErr(CodeInvalidSchema, "type must be a string or array of strings")
	}
}

func validTypeName(s string) bool {
	switch s {
	case "null", "boolean", "object", "array", "number", "string", "integer":
		return true
	}
	return false
}

func compileDependentRequired(v any) (evaluator, error) {
	mm, ok := v.(map[string]any)
	if !ok {
		return nil, schemaErr(CodeInvalidSchema, "dependentRequired must be an object")
	}
	deps := make([]depReq, 0, len(mm))
	for _, key := range sortedKeys(mm) {
		names, err := stringList("dependentRequired", mm[key])
		if err != nil {
			return nil, err
		}
		deps = append(deps, depReq{key: key, required: names})
	}
	return dependentRequiredEval{deps: deps}, nil
}

func numConfig(kw string, v any) (float64, error) {
	f, ok := numberOf(v)
	if !ok {
		return 0, schemaErr(CodeInvalidSchema, "%s must be a number", kw)
	}
	return f, nil
}

func nonNegInt(kw string, v any) (int, error) {
	f, ok := numberOf(v)
	if !ok || f != math.Trunc(f) || f < 0 {
		return 0, schemaErr(CodeInvalidSchema, "%s must be a non-negative integer", kw)
	}
	return int(f), nil
}

func stringList(kw string, v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, schemaErr(CodeInvalidSchema, "%s must be an array of strings", kw)
	}
	names := make([]string, len(arr))
	for i, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, schemaErr(CodeInvalidSchema, "%s entries must be strings", kw)
		}
		names[i] = s
	}
	return names, nil
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// ---- URI helpers ----

func resolveURI(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base == "" || r.IsAbs() {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

func stripFragment(s string) string {
	out, _, _ := strings.Cut(s, "#")
	return out
}
