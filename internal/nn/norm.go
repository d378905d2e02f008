package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const groupNormEps = 1e-5

// GroupNorm normalises channels in Groups groups, then applies a per-channel affine.
type GroupNorm struct {
	Groups, C int

	Weight *Param // gamma
	Bias   *Param // beta
}

func NewGroupNorm(groups, channels int) *GroupNorm {
	return &GroupNorm{
		Groups: groups, C: channels,
		Weight: newParam(channels),
		Bias:   newParam(channels),
	}
}

func (g *GroupNorm) Params() ParamSet {
	return ParamSet{"weight": g.Weight, "bias": g.Bias}
}

func (g *GroupNorm) Init(*rand.Rand) {
	g.Weight.fill(1)
	g.Bias.fill(0)
}

// Forward normalises x in place and returns it.
func (g *GroupNorm) Forward(x *Tensor, workers int) (*Tensor, error) {
	if x.C != g.C || g.C%g.Groups != 0 {
		return nil, fmt.Errorf("%w: group norm %d/%d on %s", ErrShape, g.Groups, g.C, x.Shape())
	}
	per := g.C / g.Groups
	hw := x.H * x.W

	parallelFor(g.Groups, workers, func(grp int) {
		span := x.Data[grp*per*hw : (grp+1)*per*hw]
		var sum, sq float64
		for _, v := range span {
			sum += float64(v)
		}
		n := float64(len(span))
		mean := sum / n
		for _, v := range span {
			d := float64(v) - mean
			sq += d * d
		}
		inv := 1 / math.Sqrt(sq/n+groupNormEps)

		for c := 0; c < per; c++ {
			ch := grp*per + c
			gamma := float64(g.Weight.Data[ch])
			beta := float64(g.Bias.Data[ch])
			plane := span[c*hw : (c+1)*hw]
			for i, v := range plane {
				plane[i] = float32((float64(v)-mean)*inv*gamma + beta)
			}
		}
	})
	return x, nil
}
