package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

// Param is a learned weight buffer with its PyTorch shape.
type Param struct {
	Shape []int
	Data  []float32
}

func newParam(shape ...int) *Param {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Param{Shape: shape, Data: make([]float32, n)}
}

// Numel returns the number of elements described by Shape.
func (p *Param) Numel() int {
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

// Assign copies src into p after checking the shape.
func (p *Param) Assign(shape []int, src []float32) error {
	if !slices.Equal(p.Shape, shape) {
		return fmt.Errorf("%w: want %v, got %v", ErrShape, p.Shape, shape)
	}
	if len(src) != len(p.Data) {
		return fmt.Errorf("%w: want %d values, got %d", ErrShape, len(p.Data), len(src))
	}
	copy(p.Data, src)
	return nil
}

func (p *Param) fill(v float32) {
	for i := range p.Data {
		p.Data[i] = v
	}
}

func (p *Param) uniform(rng *rand.Rand, bound float64) {
	for i := range p.Data {
		p.Data[i] = float32((rng.Float64()*2 - 1) * bound)
	}
}

// kaimingBound is PyTorch's default init bound for conv and linear layers:
// kaiming_uniform_(a=sqrt(5)) and the matching bias range both reduce to 1/sqrt(fan_in).
func kaimingBound(fanIn int) float64 {
	if fanIn <= 0 {
		return 0
	}
	return 1 / math.Sqrt(float64(fanIn))
}

// ParamSet maps state-dict names to parameters.
type ParamSet map[string]*Param

// Merge adds every entry of other under prefix ("down1.block.0" + "." + "weight").
func (s ParamSet) Merge(prefix string, other ParamSet) {
	for name, p := range other {
		if prefix == "" {
			s[name] = p
			continue
		}
		s[prefix+"."+name] = p
	}
}

// Names returns the parameter names in sorted order.
func (s ParamSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of scalars.
func (s ParamSet) Count() int {
	total := 0
	for _, p := range s {
		total += len(p.Data)
	}
	return total
}

// Layer is anything that owns parameters and can be randomly initialised.
type Layer interface {
	Params() ParamSet
	Init(rng *rand.Rand)
}
