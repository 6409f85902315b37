package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jmorganca/outlines-go/ecode"
)

// float32Tensor is a flat, row-major buffer plus a shape. It backs both
// ordinary logits tensors and the boolean masks BooleanOnesLike/ApplyMask
// exchange (a mask element is "true" when non-zero).
type float32Tensor struct {
	shape []int
	data  []float32
}

func (t *float32Tensor) backendTag() string { return "float32" }

func newFloat32Tensor(shape []int, fill float32) *float32Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	data := make([]float32, n)
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}
	return &float32Tensor{shape: append([]int{}, shape...), data: data}
}

// NewFloat32 builds a Tensor from row-major data and an explicit shape, for
// callers handing in logits from outside this package.
func NewFloat32(shape []int, data []float32) Tensor {
	return &float32Tensor{shape: append([]int{}, shape...), data: data}
}

// Float32Backend is the lightweight, dependency-minimal Backend
// implementation: a plain slice underneath, gonum's floats package for the
// reductions ArgsortDesc needs, the way ollama's own softmax sampling leans
// on floats rather than a full tensor library for CPU-side vector math.
type Float32Backend struct{}

func (Float32Backend) Shape(t Tensor) []int {
	return append([]int{}, t.(*float32Tensor).shape...)
}

func (Float32Backend) Unsqueeze(t Tensor, axis int) Tensor {
	ft := t.(*float32Tensor)
	shape := make([]int, 0, len(ft.shape)+1)
	shape = append(shape, ft.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, ft.shape[axis:]...)
	return &float32Tensor{shape: shape, data: ft.data}
}

func (Float32Backend) Squeeze(t Tensor, axis int) Tensor {
	ft := t.(*float32Tensor)
	if axis >= len(ft.shape) || ft.shape[axis] != 1 {
		return ft
	}
	shape := make([]int, 0, len(ft.shape)-1)
	shape = append(shape, ft.shape[:axis]...)
	shape = append(shape, ft.shape[axis+1:]...)
	return &float32Tensor{shape: shape, data: ft.data}
}

func (Float32Backend) ToSlice(t Tensor) []float32 {
	ft := t.(*float32Tensor)
	return append([]float32{}, ft.data...)
}

func (Float32Backend) FullLike(t Tensor, v float32) Tensor {
	ft := t.(*float32Tensor)
	return newFloat32Tensor(ft.shape, v)
}

func (Float32Backend) Concat(axis int, ts ...Tensor) Tensor {
	if len(ts) == 0 {
		return newFloat32Tensor(nil, 0)
	}
	first := ts[0].(*float32Tensor)
	if axis != 0 {
		// Concatenation along a non-leading axis needs a strided copy this
		// backend does not implement; for any axis other than 0 the first
		// tensor is returned unchanged.
		return first
	}
	shape := append([]int{}, first.shape...)
	var data []float32
	shape[0] = 0
	for _, t := range ts {
		ft := t.(*float32Tensor)
		shape[0] += ft.shape[0]
		data = append(data, ft.data...)
	}
	return &float32Tensor{shape: shape, data: data}
}

func (Float32Backend) BooleanOnesLike(t Tensor) Tensor {
	return newFloat32Tensor(t.(*float32Tensor).shape, 1)
}

func (Float32Backend) ApplyMask(t Tensor, mask Tensor, negInf float32) Tensor {
	ft := t.(*float32Tensor)
	fm := mask.(*float32Tensor)
	out := make([]float32, len(ft.data))
	for i, v := range ft.data {
		if i < len(fm.data) && fm.data[i] == 0 {
			out[i] = negInf
		} else {
			out[i] = v
		}
	}
	return &float32Tensor{shape: append([]int{}, ft.shape...), data: out}
}

// ArgsortDesc treats t as a 2-D [rows, cols] tensor and returns, per row,
// column indices in descending value order. It repeatedly asks gonum's
// floats.MaxIdx for the largest remaining element instead of a hand-rolled
// sort, at the cost of an O(cols^2) pass — logits rows are vocabulary-sized,
// not corpus-sized, so the simplicity is worth the constant factor.
func (Float32Backend) ArgsortDesc(t Tensor) [][]int {
	ft := t.(*float32Tensor)
	if len(ft.shape) != 2 {
		panic(&ecode.ShapeMismatch{Reason: "ArgsortDesc requires a 2-D tensor"})
	}
	rows, cols := ft.shape[0], ft.shape[1]
	out := make([][]int, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, cols)
		for c := 0; c < cols; c++ {
			row[c] = float64(ft.data[r*cols+c])
		}
		order := make([]int, cols)
		taken := make([]bool, cols)
		for i := 0; i < cols; i++ {
			idx := floats.MaxIdx(row)
			if taken[idx] {
				// Only -Inf entries remain; take them in column order.
				for idx = 0; taken[idx]; idx++ {
				}
			}
			taken[idx] = true
			order[i] = idx
			row[idx] = math.Inf(-1)
		}
		out[r] = order
	}
	return out
}

func (Float32Backend) DeviceOf(Tensor) string { return "cpu" }

func (Float32Backend) ToDevice(t Tensor, device string) Tensor {
	if device != "cpu" {
		panic(&ecode.BackendUnavailable{Backend: device})
	}
	return t
}
