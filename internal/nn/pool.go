package nn

import (
	"fmt"
	"math"
)

// MaxPool2 is a 2×2 stride-2 max pool; odd trailing rows and columns are dropped.
func MaxPool2(x *Tensor) *Tensor {
	oh, ow := x.H/2, x.W/2
	out := NewTensor(x.C, oh, ow)
	for c := 0; c < x.C; c++ {
		src, dst := x.Plane(c), out.Plane(c)
		for y := 0; y < oh; y++ {
			r0 := src[(2*y)*x.W:]
			r1 := src[(2*y+1)*x.W:]
			for xx := 0; xx < ow; xx++ {
				m := r0[2*xx]
				m = max(m, r0[2*xx+1], r1[2*xx], r1[2*xx+1])
				dst[y*ow+xx] = m
			}
		}
	}
	return out
}

// AvgPool2 is a 2×2 stride-2 average pool.
func AvgPool2(x *Tensor) *Tensor {
	oh, ow := x.H/2, x.W/2
	out := NewTensor(x.C, oh, ow)
	for c := 0; c < x.C; c++ {
		src, dst := x.Plane(c), out.Plane(c)
		for y := 0; y < oh; y++ {
			r0 := src[(2*y)*x.W:]
			r1 := src[(2*y+1)*x.W:]
			for xx := 0; xx < ow; xx++ {
				dst[y*ow+xx] = (r0[2*xx] + r0[2*xx+1] + r1[2*xx] + r1[2*xx+1]) * 0.25
			}
		}
	}
	return out
}

// AdaptiveAvgPool averages x into an oh×ow grid using the same bin edges as
// torch.nn.AdaptiveAvgPool2d: start = floor(i*in/out), end = ceil((i+1)*in/out).
func AdaptiveAvgPool(x *Tensor, oh, ow int) (*Tensor, error) {
	if oh <= 0 || ow <= 0 || x.H == 0 || x.W == 0 {
		return nil, fmt.Errorf("%w: adaptive pool %dx%d from %s", ErrShape, oh, ow, x.Shape())
	}
	out := NewTensor(x.C, oh, ow)
	for c := 0; c < x.C; c++ {
		src, dst := x.Plane(c), out.Plane(c)
		for i := 0; i < oh; i++ {
			y0, y1 := binEdges(i, x.H, oh)
			for j := 0; j < ow; j++ {
				x0, x1 := binEdges(j, x.W, ow)
				var sum float64
				for y := y0; y < y1; y++ {
					for xx := x0; xx < x1; xx++ {
						sum += float64(src[y*x.W+xx])
					}
				}
				dst[i*ow+j] = float32(sum / float64((y1-y0)*(x1-x0)))
			}
		}
	}
	return out, nil
}

func binEdges(i, in, out int) (int, int) {
	start := (i * in) / out
	end := int(math.Ceil(float64((i+1)*in) / float64(out)))
	return start, end
}
