// Package cfg is a scaffolded extension point for context-free-grammar
// constrained decoding: an EBNF grammar compiled to a pushdown automaton,
// mirroring the shape of x/grammar's GPU-accelerated pda type (compiled.go)
// without the GPU execution engine behind it. It is not part of this
// module's conformance surface — package index and package guide are the
// supported, tested path for regex- and schema-driven decoding. Treat this
// package as a sketch a future CFG backend would grow from, not a guarantee
// that arbitrary EBNF grammars decode correctly today.
package cfg

import (
	"fmt"
	"strings"

	"golang.org/x/exp/ebnf"
)

// StackSymbol is a pda stack element. Grammar-specific symbols are assigned
// sequential ids starting after stackEmpty.
type StackSymbol int

const stackEmpty StackSymbol = 0

// State is a pda state. Grammar-specific states are assigned sequential ids
// starting after StateAccept.
type State int

const (
	StateError State = iota - 1
	StateStart
	StateAccept
)

// Transition moves the pda from FromState to ToState on input matching
// Pattern, provided StackTop is on top of the stack (stackEmpty means "any
// top"), popping StackPop symbols and pushing StackPush in order.
type Transition struct {
	FromState State
	StackTop  StackSymbol
	Pattern   string
	ToState   State
	StackPop  int
	StackPush []StackSymbol
}

// PDA is a compiled pushdown automaton over an EBNF grammar's productions.
type PDA struct {
	States       int
	StackSymbols int
	StartState   State
	AcceptStates map[State]bool
	Transitions  map[State][]Transition
	Terminals    []string
}

func newPDA() *PDA {
	return &PDA{
		States:       2,
		StackSymbols: 1,
		StartState:   StateStart,
		AcceptStates: map[State]bool{StateAccept: true},
		Transitions:  map[State][]Transition{},
	}
}

// Compile parses an EBNF grammar (golang.org/x/exp/ebnf's grammar dialect)
// and produces a PDA whose Terminals list every literal and character-class
// production seen, one state per production. It does not resolve
// nonterminal references into stack push/pop pairs: every terminal of a
// production transitions straight from that production's state to
// StateAccept. Regular grammars are decoded through package index and
// package guide instead.
func Compile(src string, start string) (*PDA, error) {
	grammar, err := ebnf.Parse("cfg", strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("cfg: parse grammar: %w", err)
	}
	if _, ok := grammar[start]; !ok {
		return nil, fmt.Errorf("cfg: start production %q not found", start)
	}

	p := newPDA()
	nextState := State(2)
	stateOf := map[string]State{start: p.StartState}

	for name := range grammar {
		if _, ok := stateOf[name]; !ok {
			stateOf[name] = nextState
			nextState++
		}
	}
	p.States = int(nextState)

	for name, prod := range grammar {
		from := stateOf[name]
		terms := collectTerminals(prod.Expr)
		for _, term := range terms {
			p.Terminals = append(p.Terminals, term)
			p.Transitions[from] = append(p.Transitions[from], Transition{
				FromState: from,
				StackTop:  stackEmpty,
				Pattern:   term,
				ToState:   StateAccept,
				StackPop:  0,
			})
		}
	}
	return p, nil
}

// collectTerminals walks an ebnf.Expression tree collecting every literal
// token and character-class range it names, flattened — the piece a real
// CFG engine would instead compile into nested push/pop transitions per
// nonterminal reference.
func collectTerminals(expr ebnf.Expression) []string {
	switch e := expr.(type) {
	case *ebnf.Token:
		return []string{e.String}
	case ebnf.Sequence:
		var out []string
		for _, sub := range e {
			out = append(out, collectTerminals(sub)...)
		}
		return out
	case ebnf.Alternative:
		var out []string
		for _, sub := range e {
			out = append(out, collectTerminals(sub)...)
		}
		return out
	case *ebnf.Group:
		return collectTerminals(e.Body)
	case *ebnf.Option:
		return collectTerminals(e.Body)
	case *ebnf.Repetition:
		return collectTerminals(e.Body)
	case *ebnf.Range:
		return []string{e.Begin.String + "-" + e.End.String}
	case *ebnf.Name:
		return nil // nonterminal reference; unresolved in this scaffold
	default:
		return nil
	}
}
