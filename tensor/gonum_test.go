package tensor

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestGonumShapeAndToSlice(t *testing.T) {
	b := GonumBackend{}
	ten := NewGonum(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	if shape := b.Shape(ten); shape[0] != 2 || shape[1] != 2 {
		t.Fatalf("expected shape [2 2], got %v", shape)
	}
	got := b.ToSlice(ten)
	if got[0] != 1 || got[3] != 4 {
		t.Fatalf("expected row-major flattening, got %v", got)
	}
}

func TestGonumApplyMask(t *testing.T) {
	b := GonumBackend{}
	row := NewGonum(mat.NewDense(1, 3, []float64{1, 2, 3}))
	mask := NewGonum(mat.NewDense(1, 3, []float64{1, 0, 1}))
	out := b.ApplyMask(row, mask, float32(math.Inf(-1)))
	got := b.ToSlice(out)
	if got[0] != 1 || got[2] != 3 {
		t.Fatalf("expected unmasked entries to pass through, got %v", got)
	}
	if !math.IsInf(float64(got[1]), -1) {
		t.Fatalf("expected masked entry to become -Inf, got %v", got[1])
	}
}

func TestGonumArgsortDesc(t *testing.T) {
	b := GonumBackend{}
	ten := NewGonum(mat.NewDense(1, 3, []float64{3, 1, 2}))
	order := b.ArgsortDesc(ten)[0]
	want := []int{0, 2, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected descending order %v, got %v", want, order)
		}
	}
}

func TestGonumConcatAlongAxisZero(t *testing.T) {
	b := GonumBackend{}
	a := NewGonum(mat.NewDense(1, 2, []float64{1, 2}))
	c := NewGonum(mat.NewDense(1, 2, []float64{3, 4}))
	out := b.Concat(0, a, c)
	shape := b.Shape(out)
	if shape[0] != 2 || shape[1] != 2 {
		t.Fatalf("expected concatenated shape [2 2], got %v", shape)
	}
}

func TestGonumDeviceOfAndToDevice(t *testing.T) {
	b := GonumBackend{}
	ten := NewGonum(mat.NewDense(1, 1, []float64{1}))
	if b.DeviceOf(ten) != "cpu" {
		t.Fatal("expected DeviceOf to report cpu")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected ToDevice to panic for an unsupported device")
		}
	}()
	b.ToDevice(ten, "cuda")
}
