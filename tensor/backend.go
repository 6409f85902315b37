// Package tensor defines the capability interface the sample package uses
// to apply a boolean mask and run reduction/reshape operations against
// logits, without committing to one tensor library. This replaces a shared
// base class carrying every backend's method set with a narrow interface
// each backend implements completely — the same shift ollama's own runtime
// made from a single ml.Tensor implementation to an interface multiple
// backends (CPU, CUDA, Metal) satisfy.
package tensor

// Backend is the capability surface package sample needs from a tensor
// implementation: enough to mask, reorder, and move a 1-D or 2-D logits
// buffer, without exposing whatever storage layout the backend actually
// uses.
type Backend interface {
	// Shape returns t's dimensions, outermost first.
	Shape(t Tensor) []int
	// Unsqueeze inserts a length-1 dimension at axis.
	Unsqueeze(t Tensor, axis int) Tensor
	// Squeeze removes a length-1 dimension at axis.
	Squeeze(t Tensor, axis int) Tensor
	// ToSlice flattens t into a []float32 in row-major order.
	ToSlice(t Tensor) []float32
	// FullLike returns a tensor shaped like t with every element set to v.
	FullLike(t Tensor, v float32) Tensor
	// Concat joins ts along axis.
	Concat(axis int, ts ...Tensor) Tensor
	// BooleanOnesLike returns a boolean mask shaped like t, every element
	// true.
	BooleanOnesLike(t Tensor) Tensor
	// ApplyMask sets every element of t where mask is false to negInf.
	ApplyMask(t Tensor, mask Tensor, negInf float32) Tensor
	// ArgsortDesc returns, per row, the indices that would sort t's last
	// axis in descending order.
	ArgsortDesc(t Tensor) [][]int
	// DeviceOf reports which device (backend-defined string, e.g. "cpu")
	// t currently lives on.
	DeviceOf(t Tensor) string
	// ToDevice moves t to device, or returns t unchanged if already there.
	ToDevice(t Tensor, device string) Tensor
}

// Tensor is an opaque handle a Backend hands out and consumes. Concrete
// backends type-assert it back to their own representation; callers never
// need to.
type Tensor interface {
	backendTag() string
}
