package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmorganca/outlines-go/vocab"
)

func buildVocab(t *testing.T, tokens map[string][]uint32, eos uint32) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New(eos, tokens)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestBuildAcceptsMatchingTokenSequence(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}, "b": {2}}, 99)
	idx, err := Build("ab", v)
	if err != nil {
		t.Fatal(err)
	}
	state := idx.InitialState()
	state, ok := idx.NextState(state, 1)
	if !ok {
		t.Fatal("expected token 'a' to be accepted from the initial state")
	}
	state, ok = idx.NextState(state, 2)
	if !ok {
		t.Fatal("expected token 'b' to be accepted after 'a'")
	}
	if !idx.IsFinal(state) {
		t.Fatal("expected the state after consuming \"ab\" to be final")
	}
}

func TestBuildRejectsNonMatchingToken(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}, "z": {2}}, 99)
	idx, err := Build("a", v)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.NextState(idx.InitialState(), 2); ok {
		t.Fatal("expected token 'z' to have no transition from the initial state")
	}
}

func TestAllowedTokensIsSortedAndComplete(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {5}, "b": {2}, "c": {9}}, 99)
	idx, err := Build("[abc]", v)
	if err != nil {
		t.Fatal(err)
	}
	allowed := idx.AllowedTokens(idx.InitialState())
	want := []uint32{2, 5, 9}
	if diff := cmp.Diff(want, allowed); diff != "" {
		t.Fatalf("AllowedTokens mismatch (-want +got):\n%s", diff)
	}
}

func TestFinalStatesIncludesInitialForNullableRegex(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}}, 99)
	idx, err := Build("a*", v)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range idx.FinalStates() {
		if s == idx.InitialState() {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the initial state of a* to be final (zero repetitions matches)")
	}
}

func TestBuildErrorsOnInvalidRegex(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}}, 99)
	if _, err := Build("(unclosed", v); err == nil {
		t.Fatal("expected an error for a syntactically invalid regex")
	}
}

func TestTransitionsReflectsNextState(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}, "b": {2}}, 99)
	idx, err := Build("ab", v)
	if err != nil {
		t.Fatal(err)
	}
	table := idx.Transitions()
	next, ok := table[idx.InitialState()][1]
	if !ok {
		t.Fatal("expected a transition entry for token 1 from the initial state")
	}
	got, ok := idx.NextState(idx.InitialState(), 1)
	if !ok || got != next {
		t.Fatalf("expected Transitions() table to agree with NextState, got %d vs %d", next, got)
	}
}
