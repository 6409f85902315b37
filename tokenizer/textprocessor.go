// Package tokenizer describes the external tokenizer contract the engine
// consumes and adapts it into a vocab.Vocabulary. It mirrors the shape of
// model.TextProcessor / model.Vocabulary's split: a small interface a host
// implements, and a plain value type callers can build directly when they
// already have the raw arrays in hand.
package tokenizer

import "github.com/jmorganca/outlines-go/vocab"

// Special distinguishes BOS/EOS markers the way model.Special does.
type Special int32

const (
	SpecialBOS Special = iota
	SpecialEOS
)

// TextProcessor is the tokenizer contract consumed by this module. A real
// tokenizer implementation lives outside the core; this interface is the
// seam.
type TextProcessor interface {
	// Encode returns the token ids for s.
	Encode(s string) ([]int32, error)
	// Decode returns the surface text for a run of token ids.
	Decode(ids []int32) (string, error)
	// Is reports whether id is the named special token.
	Is(id uint32, special Special) bool
	// Vocabulary exposes the raw values backing this processor.
	Vocabulary() *Vocabulary
}

// Vocabulary is the raw token table a TextProcessor exposes, mirroring
// model.Vocabulary's value type.
type Vocabulary struct {
	Values []string
	BOS    uint32
	EOS    uint32
}

// FromTextProcessor builds a vocab.Vocabulary from anything satisfying
// TextProcessor, applying the Llama-family display-form special case: a
// token beginning with the SentencePiece "▁" marker, or the literal
// "<0x20>" byte-fallback entry, denotes a leading space and must be
// reported as a real space rather than the marker byte.
func FromTextProcessor(tp TextProcessor) (*vocab.Vocabulary, error) {
	raw := tp.Vocabulary()
	tokens := make(map[string][]uint32, len(raw.Values))
	for i, v := range raw.Values {
		id := uint32(i)
		if tp.Is(id, SpecialEOS) {
			continue
		}
		display := DisplayForm(v)
		tokens[display] = append(tokens[display], id)
	}
	return vocab.New(raw.EOS, tokens)
}

// DisplayForm normalizes a raw vocabulary entry into the text it actually
// produces when decoded, handling the Llama-family leading-space encoding.
func DisplayForm(token string) string {
	const spaceMarker = "▁" // '▁', SentencePiece's word-boundary marker
	switch {
	case token == "<0x20>":
		return " "
	case len(token) > 0 && hasPrefixRune(token, spaceMarker):
		return " " + token[len(spaceMarker):]
	default:
		return token
	}
}

func hasPrefixRune(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
