package tensor

import (
	"math"
	"testing"
)

func TestFloat32ShapeAndToSlice(t *testing.T) {
	b := Float32Backend{}
	ten := NewFloat32([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	if shape := b.Shape(ten); shape[0] != 2 || shape[1] != 3 {
		t.Fatalf("expected shape [2 3], got %v", shape)
	}
	if got := b.ToSlice(ten); len(got) != 6 || got[0] != 1 || got[5] != 6 {
		t.Fatalf("expected ToSlice to return the underlying data, got %v", got)
	}
}

func TestFloat32ApplyMask(t *testing.T) {
	b := Float32Backend{}
	row := NewFloat32([]int{3}, []float32{1, 2, 3})
	mask := NewFloat32([]int{3}, []float32{1, 0, 1})
	out := b.ApplyMask(row, mask, float32(math.Inf(-1)))
	got := b.ToSlice(out)
	if got[0] != 1 || got[2] != 3 {
		t.Fatalf("expected unmasked entries to pass through, got %v", got)
	}
	if !math.IsInf(float64(got[1]), -1) {
		t.Fatalf("expected masked entry to become -Inf, got %v", got[1])
	}
}

func TestFloat32FullLike(t *testing.T) {
	b := Float32Backend{}
	ten := NewFloat32([]int{2, 2}, []float32{0, 0, 0, 0})
	full := b.FullLike(ten, 7)
	for _, v := range b.ToSlice(full) {
		if v != 7 {
			t.Fatalf("expected every entry to be 7, got %v", b.ToSlice(full))
		}
	}
}

func TestFloat32ConcatAlongAxisZero(t *testing.T) {
	b := Float32Backend{}
	a := NewFloat32([]int{1, 2}, []float32{1, 2})
	c := NewFloat32([]int{1, 2}, []float32{3, 4})
	out := b.Concat(0, a, c)
	shape := b.Shape(out)
	if shape[0] != 2 || shape[1] != 2 {
		t.Fatalf("expected concatenated shape [2 2], got %v", shape)
	}
	if got := b.ToSlice(out); got[0] != 1 || got[2] != 3 {
		t.Fatalf("expected rows stacked in argument order, got %v", got)
	}
}

func TestFloat32ArgsortDesc(t *testing.T) {
	b := Float32Backend{}
	ten := NewFloat32([]int{1, 3}, []float32{3, 1, 2})
	order := b.ArgsortDesc(ten)
	want := []int{0, 2, 1}
	got := order[0]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected descending order %v, got %v", want, got)
		}
	}
}

func TestFloat32ArgsortDescPanicsOnNon2D(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected ArgsortDesc to panic on a non-2D tensor")
		}
	}()
	b := Float32Backend{}
	ten := NewFloat32([]int{3}, []float32{1, 2, 3})
	b.ArgsortDesc(ten)
}

func TestFloat32DeviceOfAndToDevice(t *testing.T) {
	b := Float32Backend{}
	ten := NewFloat32([]int{1}, []float32{1})
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
