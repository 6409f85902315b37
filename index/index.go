// Package index builds the vocabulary-indexed finite-state machine a Guide
// steps through during constrained generation. Build compiles a regex into a
// byte-level DFA via stdlib regexp/syntax and subset construction, then lifts
// it to a token-level transition table by walking each vocabulary token's
// bytes through the byte DFA — x/grammar takes the analogous approach for
// EBNF-derived pushdown automata walked over a vocabulary; this package
// generalizes the same idea to raw regex DFAs.
//
// Byte matching for InstRune/InstRune1 treats rune bounds above 0xFF as
// unreachable: a single Go byte can only stand for code points 0-255, so any
// character class restricted to higher code points (most non-Latin-1
// Unicode letter classes, for instance) never matches under this
// construction. Every fragment this module ships in package regexast stays
// within that range; callers supplying their own patterns with Unicode
// letter classes should expect those branches to be dead.
package index

import (
	"regexp/syntax"
	"sort"

	"github.com/jmorganca/outlines-go/ecode"
	"github.com/jmorganca/outlines-go/vocab"
)

// Index is the compiled form of a regex against a fixed vocabulary: a
// token-level DFA plus the state-indexed allowed-token lists a Guide
// consults at each step.
type Index struct {
	regex   string
	states  []byteState
	tokens  []stateTokens
	initial int
}

type byteState struct {
	trans [256]int32 // -1 means no transition
	final bool
}

type stateTokens struct {
	next map[uint32]int // token id -> next state
}

// Build compiles pattern into a byte-level DFA and lifts it against every
// token in vocabulary, producing an Index ready for use by package guide.
func Build(pattern string, vocabulary *vocab.Vocabulary) (*Index, error) {
	dfa, err := buildByteDFA(pattern)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		regex:   pattern,
		states:  dfa.states,
		tokens:  make([]stateTokens, len(dfa.states)),
		initial: 0,
	}
	for i := range idx.tokens {
		idx.tokens[i] = stateTokens{next: map[uint32]int{}}
	}

	for _, entry := range vocabulary.Tokens() {
		for state := range dfa.states {
			next, ok := dfa.walk(state, entry.Bytes)
			if !ok {
				continue
			}
			idx.tokens[state].next[entry.ID] = next
		}
	}

	if len(idx.FinalStates()) == 0 {
		return nil, &ecode.IndexBuildError{Regex: pattern, Reason: "empty language: no accepting state"}
	}
	return idx, nil
}

// InitialState returns the DFA's start state.
func (idx *Index) InitialState() int { return idx.initial }

// IsFinal reports whether state is an accepting state — the string
// consumed so far is itself a complete match, and EOS may legally follow.
func (idx *Index) IsFinal(state int) bool {
	if state < 0 || state >= len(idx.states) {
		return false
	}
	return idx.states[state].final
}

// NextState returns the state reached by consuming token from state, and
// whether that transition is defined.
func (idx *Index) NextState(state int, token uint32) (int, bool) {
	if state < 0 || state >= len(idx.tokens) {
		return 0, false
	}
	next, ok := idx.tokens[state].next[token]
	return next, ok
}

// AllowedTokens returns every token id with a defined transition out of
// state, sorted for deterministic iteration.
func (idx *Index) AllowedTokens(state int) []uint32 {
	if state < 0 || state >= len(idx.tokens) {
		return nil
	}
	out := make([]uint32, 0, len(idx.tokens[state].next))
	for id := range idx.tokens[state].next {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FinalStates returns every accepting state, sorted.
func (idx *Index) FinalStates() []int {
	var out []int
	for s, st := range idx.states {
		if st.final {
			out = append(out, s)
		}
	}
	return out
}

// Transitions returns the full state -> token -> next-state table. The outer
// map is built fresh on each call, but every per-state row is the Index's
// live map, not a copy, so callers should treat the result as read-only.
func (idx *Index) Transitions() map[int]map[uint32]int {
	out := make(map[int]map[uint32]int, len(idx.tokens))
	for s, t := range idx.tokens {
		out[s] = t.next
	}
	return out
}

// NumStates reports how many states the underlying DFA has.
func (idx *Index) NumStates() int { return len(idx.states) }

type byteDFA struct {
	states []byteState
}

// walk steps the byte DFA from state through every byte of s, returning the
// resulting state and true if no transition dead-ends; false otherwise.
func (d *byteDFA) walk(state int, s string) (int, bool) {
	for i := 0; i < len(s); i++ {
		next := d.states[state].trans[s[i]]
		if next < 0 {
			return 0, false
		}
		state = int(next)
	}
	return state, true
}

// buildByteDFA parses pattern with regexp/syntax and runs subset
// construction (NFA -> DFA) over the byte alphabet, grounded on the
// regexp/syntax-plus-subset-construction technique demonstrated in the
// retrieved regengo reference implementation, generalized from its
// string-output automaton to an index we walk directly in-process.
func buildByteDFA(pattern string) (*byteDFA, error) {
	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, &ecode.IndexBuildError{Regex: pattern, Reason: err.Error()}
	}
	parsed = parsed.Simplify()
	prog, err := syntax.Compile(parsed)
	if err != nil {
		return nil, &ecode.IndexBuildError{Regex: pattern, Reason: err.Error()}
	}

	type dfaBuilder struct {
		states      []byteState
		frontiers   [][]uint32
		stateByKey  map[string]int
	}
	b := &dfaBuilder{stateByKey: map[string]int{}}

	closure0, matched0 := epsilonClosure(prog, []uint32{uint32(prog.Start)})
	key0 := closureKey(closure0)
	b.stateByKey[key0] = 0
	b.states = append(b.states, byteState{final: matched0})
	for i := range b.states[0].trans {
		b.states[0].trans[i] = -1
	}
	b.frontiers = append(b.frontiers, closureFrontier(closure0))

	queue := []int{0}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		frontier := b.frontiers[s]

		for bi := 0; bi < 256; bi++ {
			byt := byte(bi)
			var nexts []uint32
			for _, pc := range frontier {
				inst := prog.Inst[pc]
				if instMatchesByte(inst, byt) {
					nexts = append(nexts, inst.Out)
				}
			}
			if len(nexts) == 0 {
				continue
			}
			closure, matched := epsilonClosure(prog, nexts)
			if len(closure) == 0 && !matched {
				continue
			}
			key := closureKey(closure)
			idx, ok := b.stateByKey[key]
			if !ok {
				idx = len(b.states)
				b.stateByKey[key] = idx
				st := byteState{final: matched}
				for i := range st.trans {
					st.trans[i] = -1
				}
				b.states = append(b.states, st)
				b.frontiers = append(b.frontiers, closureFrontier(closure))
				queue = append(queue, idx)
			}
			b.states[s].trans[bi] = int32(idx)
		}
	}

	return &byteDFA{states: b.states}, nil
}

// epsilonClosure follows every epsilon transition (alternation, capture,
// zero-width assertions, which this package treats as always satisfied
// since the patterns it compiles never rely on position-sensitive anchors
// mid-pattern) reachable from start, returning the frontier of
// byte-consuming instructions and whether an unconditional match was
// reached.
func epsilonClosure(prog *syntax.Prog, start []uint32) (map[uint32]bool, bool) {
	visited := map[uint32]bool{}
	frontier := map[uint32]bool{}
	matched := false
	stack := append([]uint32{}, start...)
	for len(stack) > 0 {
		pc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[pc] {
			continue
		}
		visited[pc] = true
		inst := prog.Inst[pc]
		switch inst.Op {
		case syntax.InstAlt, syntax.InstAltMatch:
			stack = append(stack, inst.Out, inst.Arg)
		case syntax.InstCapture, syntax.InstNop:
			stack = append(stack, inst.Out)
		case syntax.InstEmptyWidth:
			stack = append(stack, inst.Out)
		case syntax.InstMatch:
			matched = true
		case syntax.InstFail:
			// dead end
		case syntax.InstRune, syntax.InstRune1, syntax.InstRuneAny, syntax.InstRuneAnyNotNL:
			frontier[pc] = true
		}
	}
	return frontier, matched
}

func instMatchesByte(inst syntax.Inst, b byte) bool {
	r := rune(b)
	switch inst.Op {
	case syntax.InstRuneAny:
		return true
	case syntax.InstRuneAnyNotNL:
		return r != '\n'
	case syntax.InstRune, syntax.InstRune1:
		if len(inst.Rune) == 1 {
			return r == inst.Rune[0]
		}
		for i := 0; i+1 < len(inst.Rune); i += 2 {
			if r >= inst.Rune[i] && r <= inst.Rune[i+1] {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func closureKey(set map[uint32]bool) string {
	ids := make([]int, 0, len(set))
	for pc := range set {
		ids = append(ids, int(pc))
	}
	sort.Ints(ids)
	var b []byte
	for _, id := range ids {
		b = append(b, []byte(itoa(id))...)
		b = append(b, ',')
	}
	return string(b)
}

func closureFrontier(set map[uint32]bool) []uint32 {
	out := make([]uint32, 0, len(set))
	for pc := range set {
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
