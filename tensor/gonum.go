package tensor

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/jmorganca/outlines-go/ecode"
)

// gonumTensor wraps a *mat.Dense, for callers that already batch logits as
// a gonum matrix (a caller doing its own linear algebra upstream, say)
// rather than a flat slice.
type gonumTensor struct {
	m *mat.Dense
}

func (t *gonumTensor) backendTag() string { return "gonum" }

// NewGonum wraps an existing *mat.Dense as a Tensor.
func NewGonum(m *mat.Dense) Tensor {
	return &gonumTensor{m: m}
}

// GonumBackend implements Backend over gonum.org/v1/gonum/mat.Dense. Only
// 2-D (rows x cols) tensors are supported, matching mat.Dense itself.
type GonumBackend struct{}

func (GonumBackend) Shape(t Tensor) []int {
	r, c := t.(*gonumTensor).m.Dims()
	return []int{r, c}
}

func (GonumBackend) Unsqueeze(t Tensor, axis int) Tensor {
	gt := t.(*gonumTensor)
	r, c := gt.m.Dims()
	if axis == 0 && r == 1 {
		return gt
	}
	// mat.Dense is inherently 2-D; inserting a batch dimension of size 1
	// around an existing 2-D matrix is a no-op reshape here.
	if r == 1 || c == 1 {
		return gt
	}
	panic(&ecode.ShapeMismatch{Reason: "Unsqueeze on a gonum tensor with more than one non-unit dimension"})
}

func (GonumBackend) Squeeze(t Tensor, axis int) Tensor {
	return t
}

func (GonumBackend) ToSlice(t Tensor) []float32 {
	gt := t.(*gonumTensor)
	r, c := gt.m.Dims()
	out := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, float32(gt.m.At(i, j)))
		}
	}
	return out
}

func (GonumBackend) FullLike(t Tensor, v float32) Tensor {
	gt := t.(*gonumTensor)
	r, c := gt.m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, _ float64) float64 { return float64(v) }, out)
	return &gonumTensor{m: out}
}

func (GonumBackend) Concat(axis int, ts ...Tensor) Tensor {
	if len(ts) == 0 {
		return &gonumTensor{m: mat.NewDense(0, 0, nil)}
	}
	if axis != 0 {
		return ts[0]
	}
	totalRows, cols := 0, 0
	for _, t := range ts {
		gt := t.(*gonumTensor)
		r, c := gt.m.Dims()
		totalRows += r
		cols = c
	}
	out := mat.NewDense(totalRows, cols, nil)
	rowOffset := 0
	for _, t := range ts {
		gt := t.(*gonumTensor)
		r, _ := gt.m.Dims()
		for i := 0; i < r; i++ {
			out.SetRow(rowOffset+i, mat.Row(nil, i, gt.m))
		}
		rowOffset += r
	}
	return &gonumTensor{m: out}
}

func (GonumBackend) BooleanOnesLike(t Tensor) Tensor {
	gt := t.(*gonumTensor)
	r, c := gt.m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, _ float64) float64 { return 1 }, out)
	return &gonumTensor{m: out}
}

func (GonumBackend) ApplyMask(t Tensor, mask Tensor, negInf float32) Tensor {
	gt := t.(*gonumTensor)
	gm := mask.(*gonumTensor)
	r, c := gt.m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if gm.m.At(i, j) == 0 {
			return float64(negInf)
		}
		return v
	}, gt.m)
	return &gonumTensor{m: out}
}

func (GonumBackend) ArgsortDesc(t Tensor) [][]int {
	gt := t.(*gonumTensor)
	r, c := gt.m.Dims()
	out := make([][]int, r)
	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, gt.m)
		idx := make([]int, c)
		for j := range idx {
			idx[j] = j
		}
		sort.Slice(idx, func(a, b int) bool { return row[idx[a]] > row[idx[b]] })
		out[i] = idx
	}
	return out
}

func (GonumBackend) DeviceOf(Tensor) string { return "cpu" }

func (GonumBackend) ToDevice(t Tensor, device string) Tensor {
	if device != "cpu" {
		panic(&ecode.BackendUnavailable{Backend: device})
	}
	return t
}
