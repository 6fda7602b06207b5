package regexguard_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jsv-go/jsv/internal/regexguard"
)

func TestCompileAndMatch(t *testing.T) {
	p, err := regexguard.Compile(`^[0-9a-f]{4}$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ok, err := p.Match("beef")
	if err != nil || !ok {
		t.Fatalf("expected match, got %v, %v", ok, err)
	}
	ok, err = p.Match("nope")
	if err != nil || ok {
		t.Fatalf("expected no match, got %v, %v", ok, err)
	}
	if p.String() != `^[0-9a-f]{4}$` {
		t.Fatalf("unexpected source: %q", p.String())
	}
}

func TestUnanchoredSearch(t *testing.T) {
	p, err := regexguard.Compile(`b+`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ok, err := p.Match("aaabbbccc")
	if err != nil || !ok {
		t.Fatalf("expected substring match, got %v, %v", ok, err)
	}
}

func TestLookaheadSupported(t *testing.T) {
	// Constructs the stdlib engine rejects must compile here.
	p, err := regexguard.Compile(`^(?=.*[0-9]).{4,}$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ok, err := p.Match("ab1cd")
	if err != nil || !ok {
		t.Fatalf("expected match, got %v, %v", ok, err)
	}
	ok, err = p.Match("abcde")
	if err != nil || ok {
		t.Fatalf("expected no match, got %v, %v", ok, err)
	}
}

func TestCompileRejectsBadPattern(t *testing.T) {
	if _, err := regexguard.Compile("("); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestBudgetTrip(t *testing.T) {
	p, err := regexguard.Compile(`^(a+)+$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, err = p.Match(strings.Repeat("a", 64) + "!")
	if !errors.Is(err, regexguard.ErrBudget) {
		t.Fatalf("expected ErrBudget, got %v", err)
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	regexguard.MustCompile("(")
}
