package nn

import (
	"fmt"
	"math/rand/v2"
)

// Linear is a fully-connected layer y = W·x + b with W stored Out×In.
type Linear struct {
	In, Out int

	Weight *Param
	Bias   *Param
}

func NewLinear(in, out int) *Linear {
	return &Linear{In: in, Out: out, Weight: newParam(out, in), Bias: newParam(out)}
}

func (l *Linear) Params() ParamSet {
	return ParamSet{"weight": l.Weight, "bias": l.Bias}
}

func (l *Linear) Init(rng *rand.Rand) {
	bound := kaimingBound(l.In)
	l.Weight.uniform(rng, bound)
	l.Bias.uniform(rng, bound)
}

// Forward applies the layer to a flat input vector.
func (l *Linear) Forward(x []float32, workers int) ([]float32, error) {
	if len(x) != l.In {
		return nil, fmt.Errorf("%w: linear expects %d inputs, got %d", ErrShape, l.In, len(x))
	}
	out := make([]float32, l.Out)
	parallelFor(l.Out, workers, func(o int) {
		row := l.Weight.Data[o*l.In : (o+1)*l.In]
		var acc float64
		for i, w := range row {
			acc += float64(w) * float64(x[i])
		}
		out[o] = float32(acc) + l.Bias.Data[o]
	})
	return out, nil
}
