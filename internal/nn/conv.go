package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Conv2d is a square-kernel 2-D convolution with zero padding.
type Conv2d struct {
	InC, OutC   int
	K           int
	Stride, Pad int

	Weight *Param // OutC×InC×K×K
	Bias   *Param // OutC
}

// NewConv2d allocates a convolution with zeroed weights.
func NewConv2d(inC, outC, k, stride, pad int) *Conv2d {
	return &Conv2d{
		InC: inC, OutC: outC, K: k, Stride: stride, Pad: pad,
		Weight: newParam(outC, inC, k, k),
		Bias:   newParam(outC),
	}
}

func (c *Conv2d) Params() ParamSet {
	return ParamSet{"weight": c.Weight, "bias": c.Bias}
}

func (c *Conv2d) Init(rng *rand.Rand) {
	bound := kaimingBound(c.InC * c.K * c.K)
	c.Weight.uniform(rng, bound)
	c.Bias.uniform(rng, bound)
}

// OutputSize returns the spatial size produced for an h×w input.
func (c *Conv2d) OutputSize(h, w int) (int, int) {
	return (h+2*c.Pad-c.K)/c.Stride + 1, (w+2*c.Pad-c.K)/c.Stride + 1
}

// Forward convolves x. Output channels are spread over workers goroutines.
func (c *Conv2d) Forward(x *Tensor, workers int) (*Tensor, error) {
	if x.C != c.InC {
		return nil, fmt.Errorf("%w: conv expects %d channels, got %s", ErrShape, c.InC, x.Shape())
	}
	oh, ow := c.OutputSize(x.H, x.W)
	if oh <= 0 || ow <= 0 {
		return nil, fmt.Errorf("%w: conv kernel %d does not fit %s", ErrShape, c.K, x.Shape())
	}
	out := NewTensor(c.OutC, oh, ow)
	kk := c.K * c.K

	parallelFor(c.OutC, workers, func(oc int) {
		dst := out.Plane(oc)
		b := c.Bias.Data[oc]
		for i := range dst {
			dst[i] = b
		}
		for ic := 0; ic < c.InC; ic++ {
			src := x.Plane(ic)
			kernel := c.Weight.Data[(oc*c.InC+ic)*kk : (oc*c.InC+ic+1)*kk]
			for ky := 0; ky < c.K; ky++ {
				for kx := 0; kx < c.K; kx++ {
					w := kernel[ky*c.K+kx]
					if w == 0 {
						continue
					}
					c.accumulate(dst, src, x.H, x.W, oh, ow, ky, kx, w)
				}
			}
		}
	})
	return out, nil
}

// accumulate adds w * (input shifted by the kernel tap ky,kx) into dst.
func (c *Conv2d) accumulate(dst, src []float32, h, w, oh, ow, ky, kx int, wt float32) {
	s, p := c.Stride, c.Pad
	for oy := 0; oy < oh; oy++ {
		iy := oy*s - p + ky
		if iy < 0 || iy >= h {
			continue
		}
		row := src[iy*w : (iy+1)*w]
		out := dst[oy*ow : (oy+1)*ow]
		if s == 1 {
			lo := max(0, p-kx)
			hi := min(ow, w+p-kx)
			shift := kx - p
			for ox := lo; ox < hi; ox++ {
				out[ox] += wt * row[ox+shift]
			}
			continue
		}
		for ox := 0; ox < ow; ox++ {
			ix := ox*s - p + kx
			if ix < 0 || ix >= w {
				continue
			}
			out[ox] += wt * row[ix]
		}
	}
}

// ConvTranspose2d is a transposed convolution without padding, used for 2× upsampling.
type ConvTranspose2d struct {
	InC, OutC int
	K, Stride int

	Weight *Param // InC×OutC×K×K (PyTorch layout)
	Bias   *Param // OutC
}

// NewConvTranspose2d allocates a transposed convolution with zeroed weights.
func NewConvTranspose2d(inC, outC, k, stride int) *ConvTranspose2d {
	return &ConvTranspose2d{
		InC: inC, OutC: outC, K: k, Stride: stride,
		Weight: newParam(inC, outC, k, k),
		Bias:   newParam(outC),
	}
}

func (c *ConvTranspose2d) Params() ParamSet {
	return ParamSet{"weight": c.Weight, "bias": c.Bias}
}

// Init follows PyTorch, which computes fan_in from weight dim 1 for transposed convs.
func (c *ConvTranspose2d) Init(rng *rand.Rand) {
	bound := kaimingBound(c.OutC * c.K * c.K)
	c.Weight.uniform(rng, bound)
	c.Bias.uniform(rng, bound)
}

// Forward upsamples x to ((H-1)*stride+K) × ((W-1)*stride+K).
func (c *ConvTranspose2d) Forward(x *Tensor, workers int) (*Tensor, error) {
	if x.C != c.InC {
		return nil, fmt.Errorf("%w: transposed conv expects %d channels, got %s", ErrShape, c.InC, x.Shape())
	}
	oh := (x.H-1)*c.Stride + c.K
	ow := (x.W-1)*c.Stride + c.K
	out := NewTensor(c.OutC, oh, ow)
	kk := c.K * c.K

	parallelFor(c.OutC, workers, func(oc int) {
		dst := out.Plane(oc)
		b := c.Bias.Data[oc]
		for i := range dst {
			dst[i] = b
		}
		for ic := 0; ic < c.InC; ic++ {
			src := x.Plane(ic)
			kernel := c.Weight.Data[(ic*c.OutC+oc)*kk : (ic*c.OutC+oc+1)*kk]
			for iy := 0; iy < x.H; iy++ {
				for ix := 0; ix < x.W; ix++ {
					v := src[iy*x.W+ix]
					base := iy*c.Stride*ow + ix*c.Stride
					for ky := 0; ky < c.K; ky++ {
						for kx := 0; kx < c.K; kx++ {
							dst[base+ky*ow+kx] += v * kernel[ky*c.K+kx]
						}
					}
				}
			}
		}
	})
	return out, nil
}

// SpectralConv2d is a Conv2d whose effective weight is weight_orig / σ, with σ estimated
// from the stored power-iteration vectors u and v (σ = uᵀ·W·v). In inference mode the
// vectors are frozen, so Normalize runs once after loading and Forward only reads.
type SpectralConv2d struct {
	*Conv2d

	Orig *Param // weight_orig, same shape as Conv2d.Weight
	U    *Param // OutC
	V    *Param // InC·K·K
}

// NewSpectralConv2d allocates a spectrally-normalised convolution.
func NewSpectralConv2d(inC, outC, k, stride, pad int) *SpectralConv2d {
	conv := NewConv2d(inC, outC, k, stride, pad)
	return &SpectralConv2d{
		Conv2d: conv,
		Orig:   newParam(outC, inC, k, k),
		U:      newParam(outC),
		V:      newParam(inC * k * k),
	}
}

// Params uses the state-dict names torch.nn.utils.spectral_norm registers.
func (s *SpectralConv2d) Params() ParamSet {
	return ParamSet{
		"weight_orig": s.Orig,
		"weight_u":    s.U,
		"weight_v":    s.V,
		"bias":        s.Bias,
	}
}

// Init draws weight_orig and bias like a plain conv, then settles u and v with power
// iterations so σ is a sensible estimate before any checkpoint is applied.
func (s *SpectralConv2d) Init(rng *rand.Rand) {
	bound := kaimingBound(s.InC * s.K * s.K)
	s.Orig.uniform(rng, bound)
	s.Bias.uniform(rng, bound)

	for i := range s.U.Data {
		s.U.Data[i] = float32(rng.NormFloat64())
	}
	for i := range s.V.Data {
		s.V.Data[i] = float32(rng.NormFloat64())
	}
	normalize(s.U.Data)
	normalize(s.V.Data)

	rows, cols := s.OutC, len(s.V.Data)
	for iter := 0; iter < 20; iter++ {
		// v = normalize(Wᵀu), u = normalize(Wv)
		for j := 0; j < cols; j++ {
			var acc float64
			for i := 0; i < rows; i++ {
				acc += float64(s.Orig.Data[i*cols+j]) * float64(s.U.Data[i])
			}
			s.V.Data[j] = float32(acc)
		}
		normalize(s.V.Data)
		for i := 0; i < rows; i++ {
			var acc float64
			row := s.Orig.Data[i*cols : (i+1)*cols]
			for j, w := range row {
				acc += float64(w) * float64(s.V.Data[j])
			}
			s.U.Data[i] = float32(acc)
		}
		normalize(s.U.Data)
	}
}

// Sigma returns uᵀ·W·v for the current weight_orig.
func (s *SpectralConv2d) Sigma() float64 {
	cols := len(s.V.Data)
	var sigma float64
	for i := 0; i < s.OutC; i++ {
		var acc float64
		row := s.Orig.Data[i*cols : (i+1)*cols]
		for j, w := range row {
			acc += float64(w) * float64(s.V.Data[j])
		}
		sigma += float64(s.U.Data[i]) * acc
	}
	return sigma
}

// Normalize writes weight_orig / σ into the effective convolution weight.
func (s *SpectralConv2d) Normalize() error {
	sigma := s.Sigma()
	if sigma == 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return fmt.Errorf("spectral norm: degenerate sigma %v", sigma)
	}
	inv := float32(1 / sigma)
	for i, w := range s.Orig.Data {
		s.Weight.Data[i] = w * inv
	}
	return nil
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm < 1e-12 {
		norm = 1e-12
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
