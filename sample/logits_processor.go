package sample

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/jmorganca/outlines-go/ecode"
	"github.com/jmorganca/outlines-go/guide"
	"github.com/jmorganca/outlines-go/index"
	"github.com/jmorganca/outlines-go/schema"
	"github.com/jmorganca/outlines-go/tensor"
	"github.com/jmorganca/outlines-go/vocab"
)

// LogitsProcessor drives one guide.Guide per sequence in a batch, masking
// every logit vector to the tokens each sequence's Guide currently allows.
// It matches the shape of Sampler.Sample(logits, ...Transform), generalized
// from a single sequence to a batch and from sampling to masking.
type LogitsProcessor struct {
	ID       string // assigned at construction, identifies this processor in error messages
	guides   []*guide.Guide
	seqStart []int // prompt length per sequence, recorded on the first Process call; -1 until then
	seen     []int // post-prompt tokens already Advance()'d, per sequence
	eos      uint32
	backend  tensor.Backend
}

// NewGuideProcessor wraps an already-built slice of Guides, one per
// sequence in the batch this processor will see.
func NewGuideProcessor(guides []*guide.Guide, eos uint32, backend tensor.Backend) *LogitsProcessor {
	seqStart := make([]int, len(guides))
	for i := range seqStart {
		seqStart[i] = -1
	}
	return &LogitsProcessor{
		ID:       uuid.New().String(),
		guides:   guides,
		seqStart: seqStart,
		seen:     make([]int, len(guides)),
		eos:      eos,
		backend:  backend,
	}
}

// NewRegexProcessor builds batchSize independent Guides over an Index
// compiled from pattern, memoized process-wide.
func NewRegexProcessor(pattern string, vocabulary *vocab.Vocabulary, batchSize int, backend tensor.Backend) (*LogitsProcessor, error) {
	idx, err := index.BuildMemoized(pattern, vocabulary)
	if err != nil {
		return nil, err
	}
	guides := make([]*guide.Guide, batchSize)
	for i := range guides {
		guides[i] = guide.New(idx)
	}
	return NewGuideProcessor(guides, vocabulary.EOS(), backend), nil
}

// NewJSONProcessor is NewRegexProcessor with the regex compiled from a JSON
// Schema document via schema.RegexFromSchema.
func NewJSONProcessor(schemaSrc []byte, vocabulary *vocab.Vocabulary, batchSize int, backend tensor.Backend) (*LogitsProcessor, error) {
	pattern, err := schema.RegexFromSchema(schemaSrc)
	if err != nil {
		return nil, err
	}
	return NewRegexProcessor(pattern, vocabulary, batchSize, backend)
}

// Process advances every sequence's Guide by whichever post-prompt tokens
// in generatedIDs it has not yet seen, then masks logits to the resulting
// allowed set. generatedIDs and logits must have the same length (one
// entry per sequence); a mismatch is reported as *ecode.ShapeMismatch.
//
// On the first call for a given row, the row's current length is recorded
// as that sequence's prompt boundary (seq_start in spec terms) so the
// Guide is only ever driven by tokens generated after the prompt, per
// §4.G: "On first call, record seq_start = T, the prompt length, so only
// post-prompt ids drive the Guide."
//
// A finished sequence's row passes through unmasked: once a Guide reaches
// Completed there is nothing left to constrain.
func (p *LogitsProcessor) Process(generatedIDs [][]uint32, logits []tensor.Tensor) ([]tensor.Tensor, error) {
	if len(generatedIDs) != len(logits) || len(generatedIDs) != len(p.guides) {
		return nil, &ecode.ShapeMismatch{Reason: fmt.Sprintf(
			"processor %s: batch size mismatch: %d generatedIDs rows, %d logits rows, %d guides",
			p.ID, len(generatedIDs), len(logits), len(p.guides))}
	}

	out := make([]tensor.Tensor, len(logits))
	for i, g := range p.guides {
		if p.seqStart[i] < 0 {
			p.seqStart[i] = len(generatedIDs[i])
		}
		ids := generatedIDs[i][p.seqStart[i]:]
		for p.seen[i] < len(ids) {
			if g.IsFinished() {
				break
			}
			if err := g.Advance(ids[p.seen[i]], p.eos); err != nil {
				return nil, err
			}
			p.seen[i]++
		}

		if g.IsFinished() {
			out[i] = logits[i]
			continue
		}

		masked, err := p.maskRow(g, logits[i])
		if err != nil {
			return nil, err
		}
		out[i] = masked
	}
	return out, nil
}

func (p *LogitsProcessor) maskRow(g *guide.Guide, row tensor.Tensor) (tensor.Tensor, error) {
	shape := p.backend.Shape(row)
	vocabSize := shape[len(shape)-1]

	instr := g.NextInstruction(p.eos)
	allowed := instr.Choices
	if instr.Kind == guide.Write {
		allowed = []uint32{instr.Token}
	}

	maskData := make([]float32, vocabSize)
	for _, id := range allowed {
		if int(id) < vocabSize {
			maskData[id] = 1
		}
	}

	maskTensor, err := wrapMask(p.backend, shape, maskData)
	if err != nil {
		return nil, err
	}
	return p.backend.ApplyMask(row, maskTensor, float32(math.Inf(-1))), nil
}

// wrapMask constructs a Tensor holding maskData under the same concrete
// representation as backend, since Backend's interface is deliberately
// narrow and has no generic "build from a slice" method — only the two
// backends this module ships need a home here.
func wrapMask(backend tensor.Backend, shape []int, maskData []float32) (tensor.Tensor, error) {
	switch backend.(type) {
	case tensor.Float32Backend:
		return tensor.NewFloat32(shape, maskData), nil
	case tensor.GonumBackend:
		rows, cols := 1, len(maskData)
		if len(shape) == 2 {
			rows, cols = shape[0], shape[1]
		}
		data64 := make([]float64, len(maskData))
		for i, v := range maskData {
			data64[i] = float64(v)
		}
		return tensor.NewGonum(mat.NewDense(rows, cols, data64)), nil
	default:
		return nil, &ecode.BackendUnavailable{Backend: fmt.Sprintf("%T", backend)}
	}
}
