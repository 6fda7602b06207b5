package jsv

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/jsv-go/jsv/format"
	"github.com/jsv-go/jsv/i18n"
	"github.com/jsv-go/jsv/internal/regexguard"
)

// schemaNode is one compiled unit of the schema graph: either a boolean
// schema or an ordered list of keyword evaluators. Nodes are owned by their
// Schema, never mutated after compilation, and referenced (not copied) by
// $ref edges, so cyclic graphs are represented as back-edges.
type schemaNode struct {
	id     string
	always *bool // non-nil for boolean schemas
	evals  []evaluator
}

func (n *schemaNode) isFalse() bool { return n.always != nil && !*n.always }

// evaluator is one compiled keyword check. The implementations form a closed
// variant set fixed at compile time; extension happens only through
// customEval.
type evaluator interface {
	eval(ec *evalCtx, v any, p path, sc *scope)
}

// scope records which properties and items the applicators of one schema
// node (and its successfully matching composition branches) evaluated for a
// given instance location. The unevaluated* keywords consume the complement.
type scope struct {
	props map[string]struct{}
	items map[int]struct{}
}

func newScope() *scope { return &scope{} }

func (s *scope) markProp(k string) {
	if s.props == nil {
		s.props = make(map[string]struct{})
	}
	s.props[k] = struct{}{}
}

func (s *scope) markItem(i int) {
	if s.items == nil {
		s.items = make(map[int]struct{})
	}
	s.items[i] = struct{}{}
}

func (s *scope) hasProp(k string) bool { _, ok := s.props[k]; return ok }
func (s *scope) hasItem(i int) bool    { _, ok := s.items[i]; return ok }

func (s *scope) merge(o *scope) {
	for k := range o.props {
		s.markProp(k)
	}
	for i := range o.items {
		s.markItem(i)
	}
}

// evalCtx is the per-call evaluation state: the issue accumulator, the mask
// flag, and the re-entry guard that keeps degenerate self-references (a $ref
// cycle that consumes no input) from recursing forever. One context exists
// per top-level Validate call and is never shared.
type evalCtx struct {
	mask   bool
	issues Issues
	active map[activeKey]struct{}
}

type activeKey struct {
	node *schemaNode
	ptr  string
}

func (ec *evalCtx) render(v any) string { return renderValue(v, ec.mask) }

// renderKey renders an instance property name for a message; names are
// instance data and mask with everything else.
func (ec *evalCtx) renderKey(k string) string {
	if ec.mask {
		return maskedValue
	}
	return "'" + k + "'"
}

func (ec *evalCtx) report(p path, code string, data map[string]string) {
	var params map[string]any
	if len(data) > 0 {
		params = make(map[string]any, len(data))
		for k, v := range data {
			params[k] = v
		}
	}
	ec.issues = append(ec.issues, Issue{
		Path:    p.pointer(),
		Code:    code,
		Message: i18n.T(code, data),
		Params:  params,
	})
}

// trial evaluates n against v with a private issue buffer and scope and
// restores the main buffer afterwards. Composition keywords use it to form
// their own verdict before deciding what to surface.
func (ec *evalCtx) trial(n *schemaNode, v any, p path) (Issues, *scope) {
	saved := ec.issues
	ec.issues = nil
	sc := newScope()
	n.eval(ec, v, p, sc)
	got := ec.issues
	ec.issues = saved
	return got, sc
}

// applyInPlace evaluates n against the same instance location, surfacing its
// issues and merging its annotations only when it validated cleanly.
func (ec *evalCtx) applyInPlace(n *schemaNode, v any, p path, sc *scope) {
	iss, bsc := ec.trial(n, v, p)
	ec.issues = append(ec.issues, iss...)
	if len(iss) == 0 {
		sc.merge(bsc)
	}
}

func (n *schemaNode) eval(ec *evalCtx, v any, p path, sc *scope) {
	if n.always != nil {
		if !*n.always {
			ec.report(p, CodeDisallowedValue, map[string]string{"value": ec.render(v)})
		}
		return
	}
	key := activeKey{node: n, ptr: p.pointer()}
	if _, seen := ec.active[key]; seen {
		// Same node, same instance location: a reference cycle that makes no
		// progress. Treat the inner occurrence as satisfied.
		return
	}
	ec.active[key] = struct{}{}
	for _, e := range n.evals {
		e.eval(ec, v, p, sc)
	}
	delete(ec.active, key)
}

// ---- reference ----

type refEval struct{ target *schemaNode }

func (e refEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	// Annotations flow through $ref into the referencing scope.
	e.target.eval(ec, v, p, sc)
}

// ---- type ----

type typeEval struct{ types []string }

func (e typeEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	for _, want := range e.types {
		if typeMatches(want, v) {
			return
		}
	}
	ec.report(p, CodeInvalidType, map[string]string{
		"value": ec.render(v),
		"type":  quoteJoin(e.types),
	})
}

func quoteJoin(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += strconv.Quote(n)
	}
	return out
}

// ---- numeric ----

type minimumEval struct{ limit float64 }

func (e minimumEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if f, ok := numberOf(v); ok && f < e.limit {
		ec.report(p, CodeTooSmall, map[string]string{"value": ec.render(v), "limit": renderNumber(e.limit)})
	}
}

type maximumEval struct{ limit float64 }

func (e maximumEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if f, ok := numberOf(v); ok && f > e.limit {
		ec.report(p, CodeTooLarge, map[string]string{"value": ec.render(v), "limit": renderNumber(e.limit)})
	}
}

type exclusiveMinEval struct{ limit float64 }

func (e exclusiveMinEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if f, ok := numberOf(v); ok && f <= e.limit {
		ec.report(p, CodeExclusiveMin, map[string]string{"value": ec.render(v), "limit": renderNumber(e.limit)})
	}
}

type exclusiveMaxEval struct{ limit float64 }

func (e exclusiveMaxEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if f, ok := numberOf(v); ok && f >= e.limit {
		ec.report(p, CodeExclusiveMax, map[string]string{"value": ec.render(v), "limit": renderNumber(e.limit)})
	}
}

type multipleOfEval struct{ factor float64 }

func (e multipleOfEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	f, ok := numberOf(v)
	if !ok {
		return
	}
	q := f / e.factor
	if q != math.Trunc(q) && math.Abs(q-math.Round(q)) > 1e-9 {
		ec.report(p, CodeNotAMultiple, map[string]string{"value": ec.render(v), "multiple": renderNumber(e.factor)})
	}
}

// ---- string ----

type utf8Eval struct{}

func (utf8Eval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if s, ok := v.(string); ok && !utf8.ValidString(s) {
		ec.report(p, CodeInvalidUTF8, nil)
	}
}

type minLengthEval struct{ limit int }

func (e minLengthEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if s, ok := v.(string); ok && utf8.RuneCountInString(s) < e.limit {
		ec.report(p, CodeTooShort, map[string]string{"value": ec.render(s), "limit": strconv.Itoa(e.limit)})
	}
}

type maxLengthEval struct{ limit int }

func (e maxLengthEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if s, ok := v.(string); ok && utf8.RuneCountInString(s) > e.limit {
		ec.report(p, CodeTooLong, map[string]string{"value": ec.render(s), "limit": strconv.Itoa(e.limit)})
	}
}

type patternEval struct{ pat *regexguard.Pattern }

func (e patternEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	s, ok := v.(string)
	if !ok {
		return
	}
	matched, err := e.pat.Match(s)
	if err != nil {
		// Budget trip fails closed with its own code.
		ec.report(p, CodeRegexBacktrackLimit, map[string]string{"pattern": e.pat.String()})
		return
	}
	if !matched {
		ec.report(p, CodePatternMismatch, map[string]string{"value": ec.render(s), "pattern": e.pat.String()})
	}
}

type formatEval struct {
	name string
	fn   format.Func
}

func (e formatEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if s, ok := v.(string); ok && !e.fn(s) {
		ec.report(p, CodeFormatMismatch, map[string]string{"value": ec.render(s), "format": e.name})
	}
}

type contentEval struct {
	encoding  string
	decode    format.EncodingFunc
	mediaType string
	check     format.MediaTypeFunc
}

func (e contentEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	s, ok := v.(string)
	if !ok {
		return
	}
	raw := []byte(s)
	if e.decode != nil {
		b, err := e.decode(s)
		if err != nil {
			ec.report(p, CodeInvalidContentEncoding, map[string]string{"value": ec.render(s), "encoding": e.encoding})
			return
		}
		raw = b
	}
	if e.check != nil {
		if err := e.check(raw); err != nil {
			ec.report(p, CodeInvalidMediaType, map[string]string{"value": ec.render(s), "mediaType": e.mediaType})
		}
	}
}

// ---- array ----

type itemsEval struct {
	single *schemaNode   // schema form: applies to every element
	tuple  []*schemaNode // tuple form: positional prefix
}

func (e itemsEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	arr, ok := v.([]any)
	if !ok {
		return
	}
	if e.single != nil {
		for i, el := range arr {
			sc.markItem(i)
			e.single.eval(ec, el, p.index(i), newScope())
		}
		return
	}
	for i, n := range e.tuple {
		if i >= len(arr) {
			break
		}
		sc.markItem(i)
		n.eval(ec, arr[i], p.index(i), newScope())
	}
}

type additionalItemsEval struct {
	prefix int
	node   *schemaNode
}

func (e additionalItemsEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	arr, ok := v.([]any)
	if !ok || len(arr) <= e.prefix {
		return
	}
	if e.node.isFalse() {
		extras := make([]string, 0, len(arr)-e.prefix)
		for _, el := range arr[e.prefix:] {
			extras = append(extras, ec.render(el))
		}
		ec.report(p, CodeAdditionalItems, map[string]string{"extras": unexpectedList(extras)})
		return
	}
	for i := e.prefix; i < len(arr); i++ {
		sc.markItem(i)
		e.node.eval(ec, arr[i], p.index(i), newScope())
	}
}

type minItemsEval struct{ limit int }

func (e minItemsEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if arr, ok := v.([]any); ok && len(arr) < e.limit {
		ec.report(p, CodeTooFewItems, map[string]string{"value": ec.render(v), "limit": strconv.Itoa(e.limit)})
	}
}

type maxItemsEval struct{ limit int }

func (e maxItemsEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if arr, ok := v.([]any); ok && len(arr) > e.limit {
		ec.report(p, CodeTooManyItems, map[string]string{"value": ec.render(v), "limit": strconv.Itoa(e.limit)})
	}
}

type uniqueItemsEval struct{}

func (uniqueItemsEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	arr, ok := v.([]any)
	if !ok {
		return
	}
	for i := 1; i < len(arr); i++ {
		for j := 0; j < i; j++ {
			if jsonEqual(arr[i], arr[j]) {
				ec.report(p, CodeDuplicateItems, map[string]string{"value": ec.render(v)})
				return
			}
		}
	}
}

type containsEval struct{ node *schemaNode }

func (e containsEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	arr, ok := v.([]any)
	if !ok {
		return
	}
	found := false
	for i, el := range arr {
		iss, _ := ec.trial(e.node, el, p.index(i))
		if len(iss) == 0 {
			sc.markItem(i)
			found = true
		}
	}
	if !found {
		ec.report(p, CodeNoMatchInContains, map[string]string{"value": ec.render(v)})
	}
}

// ---- object ----

type propEntry struct {
	name string
	node *schemaNode
}

type propertiesEval struct{ entries []propEntry }

func (e propertiesEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, pe := range e.entries {
		pv, present := obj[pe.name]
		if !present {
			continue
		}
		sc.markProp(pe.name)
		pe.node.eval(ec, pv, p.field(pe.name), newScope())
	}
}

type patEntry struct {
	src  string
	pat  *regexguard.Pattern
	node *schemaNode
}

type patternPropertiesEval struct{ entries []patEntry }

func (e patternPropertiesEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, k := range sortedKeys(obj) {
		for _, pe := range e.entries {
			matched, err := pe.pat.Match(k)
			if err != nil {
				ec.report(p.field(k), CodeRegexBacktrackLimit, map[string]string{"pattern": pe.src})
				continue
			}
			if !matched {
				continue
			}
			sc.markProp(k)
			pe.node.eval(ec, obj[k], p.field(k), newScope())
		}
	}
}

type additionalPropertiesEval struct {
	known    map[string]struct{}
	patterns []patEntry
	node     *schemaNode
}

func (e additionalPropertiesEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	var extras []string
	for _, k := range sortedKeys(obj) {
		if _, named := e.known[k]; named {
			continue
		}
		matched := false
		for _, pe := range e.patterns {
			if m, err := pe.pat.Match(k); err == nil && m {
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if e.node.isFalse() {
			extras = append(extras, ec.renderKey(k))
			continue
		}
		sc.markProp(k)
		e.node.eval(ec, obj[k], p.field(k), newScope())
	}
	if len(extras) > 0 {
		ec.report(p, CodeAdditionalProperties, map[string]string{"extras": unexpectedList(extras)})
	}
}

type requiredEval struct{ names []string }

func (e requiredEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, name := range e.names {
		if _, present := obj[name]; !present {
			ec.report(p, CodeMissingProperty, map[string]string{"property": strconv.Quote(name)})
		}
	}
}

type minPropertiesEval struct{ limit int }

func (e minPropertiesEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if obj, ok := v.(map[string]any); ok && len(obj) < e.limit {
		ec.report(p, CodeTooFewProperties, map[string]string{"value": ec.render(v), "limit": strconv.Itoa(e.limit)})
	}
}

type maxPropertiesEval struct{ limit int }

func (e maxPropertiesEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if obj, ok := v.(map[string]any); ok && len(obj) > e.limit {
		ec.report(p, CodeTooManyProperties, map[string]string{"value": ec.render(v), "limit": strconv.Itoa(e.limit)})
	}
}

type propertyNamesEval struct{ node *schemaNode }

func (e propertyNamesEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, k := range sortedKeys(obj) {
		iss, _ := ec.trial(e.node, k, p.field(k))
		if len(iss) > 0 {
			ec.report(p.field(k), CodeInvalidPropertyName, map[string]string{"property": ec.renderKey(k)})
		}
	}
}

// ---- value ----

type constEval struct{ expected any }

func (e constEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if !jsonEqual(v, e.expected) {
		ec.report(p, CodeConstMismatch, map[string]string{"expected": renderValue(e.expected, ec.mask)})
	}
}

type enumEval struct{ choices []any }

func (e enumEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	for _, c := range e.choices {
		if jsonEqual(v, c) {
			return
		}
	}
	ec.report(p, CodeEnumMismatch, map[string]string{
		"value":   ec.render(v),
		"choices": renderValue(e.choices, ec.mask),
	})
}

// ---- composition ----

type allOfEval struct{ nodes []*schemaNode }

func (e allOfEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	for _, n := range e.nodes {
		ec.applyInPlace(n, v, p, sc)
	}
}

type anyOfEval struct{ nodes []*schemaNode }

func (e anyOfEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	// Every branch runs: annotations from every matching branch count, and
	// the verdict must not depend on branch order.
	ok := false
	for _, n := range e.nodes {
		iss, bsc := ec.trial(n, v, p)
		if len(iss) == 0 {
			ok = true
			sc.merge(bsc)
		}
	}
	if !ok {
		ec.report(p, CodeAnyOfMismatch, map[string]string{"value": ec.render(v)})
	}
}

type oneOfEval struct{ nodes []*schemaNode }

func (e oneOfEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	matches := 0
	var matchedScope *scope
	for _, n := range e.nodes {
		iss, bsc := ec.trial(n, v, p)
		if len(iss) == 0 {
			matches++
			if matches == 1 {
				matchedScope = bsc
			}
		}
	}
	switch {
	case matches == 1:
		sc.merge(matchedScope)
	case matches == 0:
		ec.report(p, CodeOneOfNoMatch, map[string]string{"value": ec.render(v)})
	default:
		ec.report(p, CodeOneOfMultipleMatches, map[string]string{"value": ec.render(v)})
	}
}

type notEval struct{ node *schemaNode }

func (e notEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	iss, _ := ec.trial(e.node, v, p)
	if len(iss) == 0 {
		ec.report(p, CodeNegatedSchemaMatch, map[string]string{"value": ec.render(v)})
	}
}

// ---- conditional ----

type ifEval struct {
	ifN   *schemaNode
	thenN *schemaNode
	elseN *schemaNode
}

func (e ifEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	iss, bsc := ec.trial(e.ifN, v, p)
	if len(iss) == 0 {
		sc.merge(bsc)
		if e.thenN != nil {
			ec.applyInPlace(e.thenN, v, p, sc)
		}
		return
	}
	if e.elseN != nil {
		ec.applyInPlace(e.elseN, v, p, sc)
	}
}

type depReq struct {
	key      string
	required []string
}

type dependentRequiredEval struct{ deps []depReq }

func (e dependentRequiredEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, d := range e.deps {
		if _, present := obj[d.key]; !present {
			continue
		}
		for _, r := range d.required {
			if _, present := obj[r]; !present {
				ec.report(p, CodeMissingProperty, map[string]string{"property": strconv.Quote(r)})
			}
		}
	}
}

type depSchema struct {
	key  string
	node *schemaNode
}

type dependentSchemasEval struct{ deps []depSchema }

func (e dependentSchemasEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, d := range e.deps {
		if _, present := obj[d.key]; present {
			ec.applyInPlace(d.node, v, p, sc)
		}
	}
}

// ---- extension ----

// KeywordFunc is the custom keyword extension point. cfg is the keyword's
// value in the schema document, v the instance value under evaluation. A
// non-nil error reports code custom_error with the error text as message.
type KeywordFunc func(cfg, v any) error

type customEval struct {
	name string
	cfg  any
	fn   KeywordFunc
}

func (e customEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	if err := e.fn(e.cfg, v); err != nil {
		ec.report(p, CodeCustomError, map[string]string{"detail": err.Error(), "keyword": e.name})
	}
}

// ---- annotation-aware, always evaluated last ----

type unevaluatedItemsEval struct{ node *schemaNode }

func (e unevaluatedItemsEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	arr, ok := v.([]any)
	if !ok {
		return
	}
	var extras []string
	for i, el := range arr {
		if sc.hasItem(i) {
			continue
		}
		if e.node.isFalse() {
			extras = append(extras, ec.render(el))
			continue
		}
		iss, _ := ec.trial(e.node, el, p.index(i))
		if len(iss) == 0 {
			sc.markItem(i)
			continue
		}
		extras = append(extras, ec.render(el))
	}
	if len(extras) > 0 {
		ec.report(p, CodeUnevaluatedItems, map[string]string{"extras": unexpectedList(extras)})
	}
}

type unevaluatedPropertiesEval struct{ node *schemaNode }

func (e unevaluatedPropertiesEval) eval(ec *evalCtx, v any, p path, sc *scope) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	var extras []string
	for _, k := range sortedKeys(obj) {
		if sc.hasProp(k) {
			continue
		}
		if e.node.isFalse() {
			extras = append(extras, ec.renderKey(k))
			continue
		}
		iss, _ := ec.trial(e.node, obj[k], p.field(k))
		if len(iss) == 0 {
			sc.markProp(k)
			continue
		}
		extras = append(extras, ec.renderKey(k))
	}
	if len(extras) > 0 {
		ec.report(p, CodeUnevaluatedProperties, map[string]string{"extras": unexpectedList(extras)})
	}
}
