// Package nn implements the forward passes the steganography networks are built from.
// Everything operates on a single image (no batch axis) laid out channel-major like a
// PyTorch CHW tensor, so flattening a Tensor matches torch.flatten on [C, H, W].
package nn

import (
	"errors"
	"fmt"
)

// ErrShape is returned when a layer receives a tensor whose shape it cannot consume.
var ErrShape = errors.New("tensor shape mismatch")

// Tensor is a C×H×W float32 feature map.
type Tensor struct {
	C, H, W int
	Data    []float32
}

// NewTensor allocates a zeroed tensor.
func NewTensor(c, h, w int) *Tensor {
	return &Tensor{C: c, H: h, W: w, Data: make([]float32, c*h*w)}
}

// FromSlice wraps data as a C×H×W tensor without copying.
func FromSlice(c, h, w int, data []float32) (*Tensor, error) {
	if len(data) != c*h*w {
		return nil, fmt.Errorf("%w: %d values for %dx%dx%d", ErrShape, len(data), c, h, w)
	}
	return &Tensor{C: c, H: h, W: w, Data: data}, nil
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return t.C * t.H * t.W
}

// Plane returns the backing slice of channel c.
func (t *Tensor) Plane(c int) []float32 {
	n := t.H * t.W
	return t.Data[c*n : (c+1)*n]
}

// At returns the value at channel c, row y, column x.
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.H+y)*t.W+x]
}

// Shape formats the tensor dimensions for error messages.
func (t *Tensor) Shape() string {
	return fmt.Sprintf("%dx%dx%d", t.C, t.H, t.W)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := NewTensor(t.C, t.H, t.W)
	copy(out.Data, t.Data)
	return out
}

// Concat stacks a and b along the channel axis (torch.cat(dim=1) on a single image).
func Concat(a, b *Tensor) (*Tensor, error) {
	if a.H != b.H || a.W != b.W {
		return nil, fmt.Errorf("%w: concat %s with %s", ErrShape, a.Shape(), b.Shape())
	}
	out := NewTensor(a.C+b.C, a.H, a.W)
	copy(out.Data, a.Data)
	copy(out.Data[len(a.Data):], b.Data)
	return out, nil
}

// Add returns a + b element-wise.
func Add(a, b *Tensor) (*Tensor, error) {
	if a.C != b.C || a.H != b.H || a.W != b.W {
		return nil, fmt.Errorf("%w: add %s to %s", ErrShape, a.Shape(), b.Shape())
	}
	out := NewTensor(a.C, a.H, a.W)
	for i := range out.Data {
		out.Data[i] = a.Data[i] + b.Data[i]
	}
	return out, nil
}
