package guide

import (
	"testing"

	"github.com/jmorganca/outlines-go/index"
	"github.com/jmorganca/outlines-go/vocab"
)

const eos = uint32(99)

func buildIndex(t *testing.T, pattern string, tokens map[string][]uint32) *index.Index {
	t.Helper()
	v, err := vocab.New(eos, tokens)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := index.Build(pattern, v)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestAdvanceFollowsMatchingTokens(t *testing.T) {
	idx := buildIndex(t, "ab", map[string][]uint32{"a": {1}, "b": {2}})
	g := New(idx)
	if err := g.Advance(1, eos); err != nil {
		t.Fatalf("expected 'a' to be accepted: %v", err)
	}
	if err := g.Advance(2, eos); err != nil {
		t.Fatalf("expected 'b' to be accepted: %v", err)
	}
	if err := g.Advance(eos, eos); err != nil {
		t.Fatalf("expected EOS to be accepted at a final state: %v", err)
	}
	if !g.IsFinished() {
		t.Fatal("expected the guide to be Completed after consuming EOS")
	}
}

func TestAdvanceRejectsUnmatchedToken(t *testing.T) {
	idx := buildIndex(t, "a", map[string][]uint32{"a": {1}, "z": {2}})
	g := New(idx)
	if err := g.Advance(2, eos); err == nil {
		t.Fatal("expected a token with no transition to be rejected")
	}
}

func TestAdvanceRejectsEOSBeforeFinalState(t *testing.T) {
	idx := buildIndex(t, "ab", map[string][]uint32{"a": {1}, "b": {2}})
	g := New(idx)
	if err := g.Advance(eos, eos); err == nil {
		t.Fatal("expected EOS to be rejected before reaching a final state")
	}
}

func TestAdvanceAfterCompletedFails(t *testing.T) {
	idx := buildIndex(t, "a", map[string][]uint32{"a": {1}})
	g := New(idx)
	if err := g.Advance(1, eos); err != nil {
		t.Fatal(err)
	}
	if err := g.Advance(eos, eos); err != nil {
		t.Fatal(err)
	}
	if err := g.Advance(1, eos); err == nil {
		t.Fatal("expected Advance to fail once the guide has Completed")
	}
}

func TestNextInstructionWriteVsGenerate(t *testing.T) {
	idx := buildIndex(t, "a", map[string][]uint32{"a": {1}})
	g := New(idx)
	instr := g.NextInstruction(eos)
	if instr.Kind != Write || instr.Token != 1 {
		t.Fatalf("expected a single legal continuation to produce Write(1), got %+v", instr)
	}

	idx2 := buildIndex(t, "[ab]", map[string][]uint32{"a": {1}, "b": {2}})
	g2 := New(idx2)
	instr2 := g2.NextInstruction(eos)
	if instr2.Kind != Generate || len(instr2.Choices) != 2 {
		t.Fatalf("expected two legal continuations to produce Generate, got %+v", instr2)
	}
}

func TestNextInstructionErrorsOnStrandedState(t *testing.T) {
	// The vocabulary has no token spelling the 'b' the pattern still needs,
	// so after consuming 'a' the guide lands in a non-final state with no
	// legal continuation at all.
	idx := buildIndex(t, "ab", map[string][]uint32{"a": {1}})
	g := New(idx)
	if err := g.Advance(1, eos); err != nil {
		t.Fatal(err)
	}
	instr := g.NextInstruction(eos)
	if g.Status() != Errored {
		t.Fatalf("expected a non-final state with no allowed tokens to set Errored, got %v (instruction %+v)", g.Status(), instr)
	}
	if len(instr.Choices) != 0 {
		t.Fatalf("expected no choices from an errored state, got %+v", instr)
	}
}

func TestRollbackRestoresPriorState(t *testing.T) {
	idx := buildIndex(t, "ab", map[string][]uint32{"a": {1}, "b": {2}})
	g := New(idx, WithMaxRollback(4))
	if err := g.Advance(1, eos); err != nil {
		t.Fatal(err)
	}
	before := g.AcceptsTokens([]uint32{2})
	if err := g.Advance(2, eos); err != nil {
		t.Fatal(err)
	}
	if err := g.Rollback(1); err != nil {
		t.Fatal(err)
	}
	after := g.AcceptsTokens([]uint32{2})
	if len(before) != len(after) {
		t.Fatalf("expected Rollback(1) to restore the accepted-token set from before the second Advance, got %v vs %v", before, after)
	}
	if g.Status() != Active {
		t.Fatal("expected Rollback to restore Active status")
	}
}

func TestRollbackRejectsExcessiveDepth(t *testing.T) {
	idx := buildIndex(t, "a", map[string][]uint32{"a": {1}})
	g := New(idx, WithMaxRollback(4))
	if err := g.Advance(1, eos); err != nil {
		t.Fatal(err)
	}
	if err := g.Rollback(5); err == nil {
		t.Fatal("expected rolling back further than history depth to fail")
	}
}

func TestRollbackEvictsOldestBeyondCapacity(t *testing.T) {
	idx := buildIndex(t, "aaa", map[string][]uint32{"a": {1}})
	g := New(idx, WithMaxRollback(2))
	for i := 0; i < 3; i++ {
		if err := g.Advance(1, eos); err != nil {
			t.Fatal(err)
		}
	}
	// history capacity is 2, so only the last two pre-advance states survive.
	if err := g.Rollback(3); err == nil {
		t.Fatal("expected rolling back beyond the ring buffer's capacity to fail")
	}
	if err := g.Rollback(2); err != nil {
		t.Fatalf("expected rolling back exactly to capacity to succeed: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	idx := buildIndex(t, "ab", map[string][]uint32{"a": {1}, "b": {2}})
	g := New(idx)
	if err := g.Advance(1, eos); err != nil {
		t.Fatal(err)
	}
	clone := g.Clone()
	if err := clone.Advance(2, eos); err != nil {
		t.Fatal(err)
	}
	if err := clone.Advance(eos, eos); err != nil {
		t.Fatal(err)
	}
	if !clone.IsFinished() {
		t.Fatal("expected the clone to finish independently")
	}
	if g.IsFinished() {
		t.Fatal("expected advancing the clone not to affect the original guide")
	}
}

func TestResetReturnsToInitialState(t *testing.T) {
	idx := buildIndex(t, "a", map[string][]uint32{"a": {1}})
	g := New(idx)
	if err := g.Advance(1, eos); err != nil {
		t.Fatal(err)
	}
	g.Reset()
	if g.Status() != Active {
		t.Fatal("expected Reset to restore Active status")
	}
	if err := g.Rollback(1); err == nil {
		t.Fatal("expected Reset to clear rollback history")
	}
}
