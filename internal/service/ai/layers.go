package ai

import (
	"math/rand/v2"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/nn"
)

// namedLayer ties a layer to its state-dict prefix.
type namedLayer struct {
	name  string
	layer nn.Layer
}

// registry keeps layers in construction order so seeded init is reproducible.
type registry []namedLayer

func (r *registry) add(name string, l nn.Layer) {
	*r = append(*r, namedLayer{name: name, layer: l})
}

func (r registry) params() nn.ParamSet {
	set := nn.ParamSet{}
	for _, nl := range r {
		set.Merge(nl.name, nl.layer.Params())
	}
	return set
}

func (r registry) init(rng *rand.Rand) {
	for _, nl := range r {
		nl.layer.Init(rng)
	}
}

// doubleConv is conv3x3 -> GN -> LeakyReLU, twice (the U-Net block).
type doubleConv struct {
	conv1 *nn.Conv2d
	norm1 *nn.GroupNorm
	conv2 *nn.Conv2d
	norm2 *nn.GroupNorm
}

func newDoubleConv(reg *registry, prefix string, in, out int) *doubleConv {
	b := &doubleConv{
		conv1: nn.NewConv2d(in, out, 3, 1, 1),
		norm1: nn.NewGroupNorm(8, out),
		conv2: nn.NewConv2d(out, out, 3, 1, 1),
		norm2: nn.NewGroupNorm(8, out),
	}
	reg.add(prefix+".block.0", b.conv1)
	reg.add(prefix+".block.1", b.norm1)
	reg.add(prefix+".block.3", b.conv2)
	reg.add(prefix+".block.4", b.norm2)
	return b
}

func (b *doubleConv) forward(x *nn.Tensor, workers int) (*nn.Tensor, error) {
	x, err := b.conv1.Forward(x, workers)
	if err != nil {
		return nil, err
	}
	if x, err = b.norm1.Forward(x, workers); err != nil {
		return nil, err
	}
	nn.LeakyReLU(x.Data, nn.LeakySlope)
	if x, err = b.conv2.Forward(x, workers); err != nil {
		return nil, err
	}
	if x, err = b.norm2.Forward(x, workers); err != nil {
		return nil, err
	}
	nn.LeakyReLU(x.Data, nn.LeakySlope)
	return x, nil
}

// residualBlock is LeakyReLU(conv-GN-act-conv-GN(x) + shortcut(x)).
type residualBlock struct {
	conv1    *nn.Conv2d
	norm1    *nn.GroupNorm
	conv2    *nn.Conv2d
	norm2    *nn.GroupNorm
	shortcut *nn.Conv2d // nil for identity
}

func newResidualBlock(reg *registry, prefix string, in, out int) *residualBlock {
	b := &residualBlock{
		conv1: nn.NewConv2d(in, out, 3, 1, 1),
		norm1: nn.NewGroupNorm(8, out),
		conv2: nn.NewConv2d(out, out, 3, 1, 1),
		norm2: nn.NewGroupNorm(8, out),
	}
	reg.add(prefix+".conv.0", b.conv1)
	reg.add(prefix+".conv.1", b.norm1)
	reg.add(prefix+".conv.3", b.conv2)
	reg.add(prefix+".conv.4", b.norm2)
	if in != out {
		b.shortcut = nn.NewConv2d(in, out, 1, 1, 0)
		reg.add(prefix+".shortcut", b.shortcut)
	}
	return b
}

func (b *residualBlock) forward(x *nn.Tensor, workers int) (*nn.Tensor, error) {
	y, err := b.conv1.Forward(x, workers)
	if err != nil {
		return nil, err
	}
	if y, err = b.norm1.Forward(y, workers); err != nil {
		return nil, err
	}
	nn.LeakyReLU(y.Data, nn.LeakySlope)
	if y, err = b.conv2.Forward(y, workers); err != nil {
		return nil, err
	}
	if y, err = b.norm2.Forward(y, workers); err != nil {
		return nil, err
	}

	skip := x
	if b.shortcut != nil {
		if skip, err = b.shortcut.Forward(x, workers); err != nil {
			return nil, err
		}
	}
	out, err := nn.Add(y, skip)
	if err != nil {
		return nil, err
	}
	nn.LeakyReLU(out.Data, nn.LeakySlope)
	return out, nil
}
