package ai

import (
	"fmt"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/bitcodec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/nn"
)

// Tensor is the network-space image type.
type Tensor = nn.Tensor

// EmbedInput is a normalised 3×96×96 cover and its 256-bit payload.
type EmbedInput struct {
	Cover *Tensor
	Bits  []uint8
}

// Embedder is the U-Net that hides a payload in a cover. Weights use the
// "generator." prefix.
type Embedder struct {
	msgProj    *nn.Linear
	down1      *doubleConv
	down2      *doubleConv
	down3      *doubleConv
	bottleneck *doubleConv
	up3        *nn.ConvTranspose2d
	upblock3   *doubleConv
	up2        *nn.ConvTranspose2d
	upblock2   *doubleConv
	up1        *nn.ConvTranspose2d
	upblock1   *doubleConv
	outconv    *nn.Conv2d

	layers  registry
	workers int
}

func newEmbedder(workers int) *Embedder {
	e := &Embedder{workers: workers}
	r := &e.layers
	side := imaging.ModelSize

	e.down1 = newDoubleConv(r, "down1", 4, 64)
	e.down2 = newDoubleConv(r, "down2", 64, 128)
	e.down3 = newDoubleConv(r, "down3", 128, 256)
	e.bottleneck = newDoubleConv(r, "bottleneck", 256, 512)
	e.up3 = nn.NewConvTranspose2d(512, 256, 2, 2)
	r.add("up3", e.up3)
	e.upblock3 = newDoubleConv(r, "upblock3", 512, 256)
	e.up2 = nn.NewConvTranspose2d(256, 128, 2, 2)
	r.add("up2", e.up2)
	e.upblock2 = newDoubleConv(r, "upblock2", 256, 128)
	e.up1 = nn.NewConvTranspose2d(128, 64, 2, 2)
	r.add("up1", e.up1)
	e.upblock1 = newDoubleConv(r, "upblock1", 128, 64)
	e.outconv = nn.NewConv2d(64, 3, 1, 1, 0)
	r.add("outconv", e.outconv)
	e.msgProj = nn.NewLinear(bitcodec.Bits, side*side)
	r.add("msg_proj", e.msgProj)
	return e
}

// Infer returns the stego tensor in [-1, 1].
func (e *Embedder) Infer(in EmbedInput) (*Tensor, error) {
	side := imaging.ModelSize
	if in.Cover == nil || in.Cover.C != 3 || in.Cover.H != side || in.Cover.W != side {
		return nil, fmt.Errorf("%w: embedder wants 3x%dx%d cover", nn.ErrShape, side, side)
	}
	if len(in.Bits) != bitcodec.Bits {
		return nil, fmt.Errorf("%w: embedder wants %d bits, got %d", nn.ErrShape, bitcodec.Bits, len(in.Bits))
	}

	msg := make([]float32, len(in.Bits))
	for i, b := range in.Bits {
		msg[i] = float32(b)
	}
	projected, err := e.msgProj.Forward(msg, e.workers)
	if err != nil {
		return nil, err
	}
	msgMap, err := nn.FromSlice(1, side, side, projected)
	if err != nil {
		return nil, err
	}
	x, err := nn.Concat(in.Cover, msgMap)
	if err != nil {
		return nil, err
	}

	d1, err := e.down1.forward(x, e.workers)
	if err != nil {
		return nil, err
	}
	d2, err := e.down2.forward(nn.MaxPool2(d1), e.workers)
	if err != nil {
		return nil, err
	}
	d3, err := e.down3.forward(nn.MaxPool2(d2), e.workers)
	if err != nil {
		return nil, err
	}
	bn, err := e.bottleneck.forward(nn.MaxPool2(d3), e.workers)
	if err != nil {
		return nil, err
	}

	u3, err := e.upStage(e.up3, e.upblock3, bn, d3)
	if err != nil {
		return nil, err
	}
	u2, err := e.upStage(e.up2, e.upblock2, u3, d2)
	if err != nil {
		return nil, err
	}
	u1, err := e.upStage(e.up1, e.upblock1, u2, d1)
	if err != nil {
		return nil, err
	}

	out, err := e.outconv.Forward(u1, e.workers)
	if err != nil {
		return nil, err
	}
	nn.Tanh(out.Data)
	return out, nil
}

func (e *Embedder) upStage(up *nn.ConvTranspose2d, block *doubleConv, x, skip *Tensor) (*Tensor, error) {
	u, err := up.Forward(x, e.workers)
	if err != nil {
		return nil, err
	}
	u, err = nn.Concat(u, skip)
	if err != nil {
		return nil, err
	}
	return block.forward(u, e.workers)
}
