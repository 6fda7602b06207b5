// Package regexguard compiles and matches regular expressions under a hard
// execution budget so a pathological pattern/input pair cannot stall the
// caller. JSON Schema patterns are ECMA-style and routinely use constructs
// (lookahead, backreferences) that Go's RE2-based stdlib engine rejects, so
// matching runs on a backtracking engine and the budget is what keeps
// worst-case inputs bounded.
package regexguard

import (
	"errors"
	"time"

	"github.com/dlclark/regexp2"
)

// matchBudget bounds a single match attempt. The engine checks the deadline
// from inside its backtracking loop, so a trip means the backtracking budget
// ran out, never that a match simply took a slow code path to succeed.
const matchBudget = 250 * time.Millisecond

// ErrBudget reports that a match attempt exceeded the backtracking budget.
// Callers must fail closed on it: the candidate is treated as not validated,
// never as a silent pass.
var ErrBudget = errors.New("regexguard: backtracking budget exceeded")

// Pattern is a compiled regular expression with a bounded matcher. It is
// immutable after Compile and safe for concurrent use.
type Pattern struct {
	re  *regexp2.Regexp
	src string
}

// Compile compiles an ECMA-style pattern. Patterns valid under the engine's
// default dialect but not its strict ECMAScript mode are accepted on a second
// attempt, keeping the accepted surface as wide as schema authors expect.
func Compile(src string) (*Pattern, error) {
	re, err := regexp2.Compile(src, regexp2.ECMAScript)
	if err != nil {
		re, err = regexp2.Compile(src, regexp2.None)
		if err != nil {
			return nil, err
		}
	}
	re.MatchTimeout = matchBudget
	return &Pattern{re: re, src: src}, nil
}

// MustCompile is Compile for patterns known good at build time.
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether s contains a match (JSON Schema pattern semantics:
// unanchored search). A budget trip returns ErrBudget.
func (p *Pattern) Match(s string) (bool, error) {
	ok, err := p.re.MatchString(s)
	if err != nil {
		return false, ErrBudget
	}
	return ok, nil
}

// String returns the pattern source.
func (p *Pattern) String() string { return p.src }
