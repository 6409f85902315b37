package tokenizer

import "testing"

func TestDisplayFormHandlesSentencePieceMarker(t *testing.T) {
	got := DisplayForm("▁hello")
	if got != " hello" {
		t.Fatalf("expected the SentencePiece marker to become a literal leading space, got %q", got)
	}
}

func TestDisplayFormHandlesByteFallbackSpace(t *testing.T) {
	if got := DisplayForm("<0x20>"); got != " " {
		t.Fatalf("expected <0x20> to decode to a literal space, got %q", got)
	}
}

func TestDisplayFormLeavesOrdinaryTokensUnchanged(t *testing.T) {
	if got := DisplayForm("hello"); got != "hello" {
		t.Fatalf("expected an ordinary token to pass through unchanged, got %q", got)
	}
}

type fakeProcessor struct {
	vocab *Vocabulary
}

func (f fakeProcessor) Encode(s string) ([]int32, error)  { return nil, nil }
func (f fakeProcessor) Decode(ids []int32) (string, error) { return "", nil }
func (f fakeProcessor) Is(id uint32, special Special) bool {
	return special == SpecialEOS && id == f.vocab.EOS
}
func (f fakeProcessor) Vocabulary() *Vocabulary { return f.vocab }

func TestFromTextProcessorSkipsEOSAndAppliesDisplayForm(t *testing.T) {
	fp := fakeProcessor{vocab: &Vocabulary{
		Values: []string{"▁hi", "<0x20>", "eos-slot"},
		BOS:    0,
		EOS:    2,
	}}
	v, err := FromTextProcessor(fp)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.Get(" hi"); !ok {
		t.Fatal("expected the SentencePiece-marked token to be registered under its display form")
	}
	if v.Size() != 2 {
		t.Fatalf("expected the EOS slot to be excluded from the vocabulary, got size %d", v.Size())
	}
}
