// Package sample adapts ollama's unconstrained token-sampling stack
// (temperature, top-k, top-p, min-p, weighted draw) to run downstream of
// grammar masking, plus the LogitsProcessor that performs the masking
// itself. Composing the two in one call — mask first, then sample — mirrors
// how ollama's own Sampler.Sample takes a variadic list of Transforms
// applied in sequence.
package sample

import (
	"cmp"
	"errors"
	"math"
	"slices"

	pq "github.com/emirpasic/gods/v2/queues/priorityqueue"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Transform narrows a logit vector in place, e.g. by temperature scaling or
// by setting unwanted entries to -Inf.
type Transform interface {
	Apply([]float64) ([]float64, error)
}

// Sampler draws a single token index from a logit vector after running it
// through the given Transforms in order.
type Sampler interface {
	Sample([]float32, ...Transform) (int, error)
}

func softmax(logits []float64) []float64 {
	maxLogit := slices.Max(logits)
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	floats.Scale(1/sum, out)
	return out
}

// Temperature scales logits by 1/temp after centering on the max, in the
// range (0, 2].
type Temperature float64

func (t Temperature) Apply(logits []float64) ([]float64, error) {
	if t == 0 {
		return nil, errors.New("sample: use a greedy Sampler instead of Temperature(0)")
	}
	if t < 0 || t > 2 {
		return nil, errors.New("sample: temperature must be in (0, 2]")
	}
	temp := math.Max(float64(t), 1e-7)
	maxLogit := slices.Max(logits)
	for i := range logits {
		logits[i] = (logits[i] - maxLogit) / temp
	}
	return logits, nil
}

type logitRank struct {
	index int
	logit float64
}

func rankDesc(a, b logitRank) int { return -cmp.Compare(a.logit, b.logit) }

// TopK keeps only the k highest logits, masking the rest to -Inf.
type TopK int

func (k TopK) Apply(logits []float64) ([]float64, error) {
	if k <= 0 {
		return nil, errors.New("sample: k must be greater than 0")
	}
	if int(k) >= len(logits) {
		return logits, nil
	}

	q := pq.NewWith(rankDesc)
	for i, logit := range logits {
		q.Enqueue(logitRank{index: i, logit: logit})
	}
	kept := make(map[int]bool, int(k))
	for i := 0; i < int(k); i++ {
		top, ok := q.Dequeue()
		if !ok {
			break
		}
		kept[top.index] = true
	}
	for i := range logits {
		if !kept[i] {
			logits[i] = math.Inf(-1)
		}
	}
	return logits, nil
}

// TopP keeps the smallest prefix of logits (by descending probability)
// whose cumulative probability exceeds p, masking the rest to -Inf.
type TopP float64

func (p TopP) Apply(logits []float64) ([]float64, error) {
	if p <= 0 || p >= 1 {
		return nil, errors.New("sample: p must be in (0, 1)")
	}
	probs := softmax(logits)
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return cmp.Compare(probs[b], probs[a]) })

	var cum float64
	for i, idx := range order {
		cum += probs[idx]
		if cum > float64(p) {
			for _, drop := range order[i+1:] {
				logits[drop] = math.Inf(-1)
			}
			break
		}
	}
	return logits, nil
}

// MinP drops every logit whose probability is below p times the maximum
// probability.
type MinP float64

func (p MinP) Apply(logits []float64) ([]float64, error) {
	if p <= 0 || p >= 1 {
		return nil, errors.New("sample: p must be in (0, 1)")
	}
	probs := softmax(logits)
	threshold := slices.Max(probs) * float64(p)
	for i, prob := range probs {
		if prob < threshold {
			logits[i] = math.Inf(-1)
		}
	}
	return logits, nil
}

type weighted struct {
	src rand.Source
}

// Weighted returns a Sampler that draws a token proportional to its
// post-transform probability. A nil seed uses gonum's default entropy
// source.
func Weighted(seed *int64) Sampler {
	var src rand.Source
	if seed != nil {
		src = rand.NewSource(uint64(*seed))
	}
	return weighted{src: src}
}

func (s weighted) Sample(logits []float32, transforms ...Transform) (int, error) {
	logits64 := make([]float64, len(logits))
	for i, v := range logits {
		logits64[i] = float64(v)
	}

	var err error
	for _, t := range transforms {
		logits64, err = t.Apply(logits64)
		if err != nil {
			return -1, err
		}
	}

	kept := make([]float64, 0, len(logits64))
	indices := make([]int, 0, len(logits64))
	for i, logit := range logits64 {
		if !math.IsInf(logit, -1) {
			kept = append(kept, logit)
			indices = append(indices, i)
		}
	}
	if len(kept) == 0 {
		return -1, errors.New("sample: no valid logits remain after masking")
	}

	probs := softmax(kept)
	w := sampleuv.NewWeighted(probs, s.src)
	if idx, ok := w.Take(); ok {
		return indices[idx], nil
	}
	return -1, errors.New("sample: weighted draw failed to select a token")
}

// Greedy returns a Sampler that always takes the highest-probability token
// after transforms run.
func Greedy() Sampler { return greedy{} }

type greedy struct{}

func (greedy) Sample(logits []float32, transforms ...Transform) (int, error) {
	logits64 := make([]float64, len(logits))
	for i, v := range logits {
		logits64[i] = float64(v)
	}
	var err error
	for _, t := range transforms {
		logits64, err = t.Apply(logits64)
		if err != nil {
			return -1, err
		}
	}
	best := 0
	for i, v := range logits64 {
		if v > logits64[best] {
			best = i
		}
	}
	return best, nil
}
