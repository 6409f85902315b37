// Package guide implements the stateful cursor a generation loop steps
// through an Index one token at a time. A Guide is the minimal mutable
// state needed to drive constrained decoding: current state, a bounded
// history for rollback, and a status. It deliberately holds no reference
// back to the vocabulary or the regex source — those live in the Index it
// wraps.
package guide

import (
	"github.com/jmorganca/outlines-go/ecode"
	"github.com/jmorganca/outlines-go/envconfig"
	"github.com/jmorganca/outlines-go/index"
)

// Status is a Guide's lifecycle state.
type Status int

const (
	Active Status = iota
	Completed
	Errored
)

func (s Status) String() string {
	switch s {
	case Active:
		return "Active"
	case Completed:
		return "Completed"
	case Errored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// InstructionKind distinguishes a deterministic write from a model-driven
// choice.
type InstructionKind int

const (
	// Write means exactly one token is legal next; the caller should emit
	// it without consulting the model's logits.
	Write InstructionKind = iota
	// Generate means more than one token is legal; the caller should mask
	// logits to AcceptsTokens and sample normally.
	Generate
)

// Instruction is what NextInstruction returns: either the single token to
// write, or the set the model must choose among.
type Instruction struct {
	Kind    InstructionKind
	Token   uint32   // meaningful when Kind == Write
	Choices []uint32 // meaningful when Kind == Generate
}

// Option configures a Guide at construction.
type Option func(*Guide)

// WithMaxRollback overrides the ring buffer capacity (default
// envconfig.MaxRollback).
func WithMaxRollback(n int) Option {
	return func(g *Guide) { g.maxRollback = n }
}

// Guide is a stateful cursor over an Index. It is not safe for concurrent
// use by multiple goroutines; callers running several sequences
// concurrently should give each its own Guide (Clone is cheap for exactly
// this).
type Guide struct {
	idx         *index.Index
	state       int
	status      Status
	maxRollback int
	history     []int // ring buffer of prior states, oldest evicted first
}

// New builds a Guide positioned at idx's initial state.
func New(idx *index.Index, opts ...Option) *Guide {
	g := &Guide{
		idx:         idx,
		state:       idx.InitialState(),
		status:      Active,
		maxRollback: envconfig.MaxRollback,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxRollback < 0 {
		g.maxRollback = 0
	}
	return g
}

// Status reports the Guide's current lifecycle state.
func (g *Guide) Status() Status { return g.status }

// IsFinished reports whether the Guide has reached Completed.
func (g *Guide) IsFinished() bool { return g.status == Completed }

// AcceptsTokens reports which of the given token ids are legal from the
// current state.
func (g *Guide) AcceptsTokens(ids []uint32) []uint32 {
	allowed := g.idx.AllowedTokens(g.state)
	set := make(map[uint32]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	var out []uint32
	for _, id := range ids {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}

// NextInstruction reports whether the current state has exactly one legal
// continuation (Write) or several (Generate). eos is included among the
// choices whenever the current state is final. A non-final state with no
// outgoing transitions has nowhere left to go; per spec §4.F that is an
// error, and NextInstruction moves the Guide to Errored and returns a
// Generate instruction with no choices.
func (g *Guide) NextInstruction(eos uint32) Instruction {
	allowed := g.idx.AllowedTokens(g.state)
	if len(allowed) == 0 && !g.idx.IsFinal(g.state) {
		g.status = Errored
		return Instruction{Kind: Generate}
	}

	choices := allowed
	if g.idx.IsFinal(g.state) {
		choices = append(append([]uint32{}, allowed...), eos)
	}
	if len(choices) == 1 {
		return Instruction{Kind: Write, Token: choices[0]}
	}
	return Instruction{Kind: Generate, Choices: choices}
}

// Advance consumes token, pushing the pre-advance state onto the rollback
// history. It fails with *ecode.InvalidTransition if token has no defined
// transition from the current state and is not a legal EOS at a final
// state.
func (g *Guide) Advance(token uint32, eos uint32) error {
	if g.status != Active {
		return &ecode.InvalidTransition{State: g.state, TokenID: token}
	}
	if token == eos {
		if !g.idx.IsFinal(g.state) {
			return &ecode.InvalidTransition{State: g.state, TokenID: token}
		}
		g.pushHistory(g.state)
		g.status = Completed
		return nil
	}
	next, ok := g.idx.NextState(g.state, token)
	if !ok {
		return &ecode.InvalidTransition{State: g.state, TokenID: token}
	}
	g.pushHistory(g.state)
	g.state = next
	return nil
}

func (g *Guide) pushHistory(state int) {
	if g.maxRollback == 0 {
		return
	}
	if len(g.history) == g.maxRollback {
		copy(g.history, g.history[1:])
		g.history[len(g.history)-1] = state
		return
	}
	g.history = append(g.history, state)
}

// Rollback undoes the last k Advance calls, restoring the state (and
// Active status) from k steps ago. It fails with *ecode.InvalidRollback if
// fewer than k states are available.
func (g *Guide) Rollback(k int) error {
	if k <= 0 {
		return nil
	}
	if k > len(g.history) {
		return &ecode.InvalidRollback{Requested: k, Available: len(g.history)}
	}
	target := g.history[len(g.history)-k]
	g.history = g.history[:len(g.history)-k]
	g.state = target
	g.status = Active
	return nil
}

// Reset returns the Guide to its initial state, discarding all history.
func (g *Guide) Reset() {
	g.state = g.idx.InitialState()
	g.status = Active
	g.history = g.history[:0]
}

// Clone returns an independent copy of g sharing the same underlying Index
// (which is read-only once built).
func (g *Guide) Clone() *Guide {
	clone := &Guide{
		idx:         g.idx,
		state:       g.state,
		status:      g.status,
		maxRollback: g.maxRollback,
		history:     append([]int{}, g.history...),
	}
	return clone
}
