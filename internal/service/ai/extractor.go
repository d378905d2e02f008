package ai

import (
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/bitcodec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/nn"
)

const poolGrid = 6

// Extractor is the residual network that reads the payload back. Weights use the
// "decoder." prefix.
type Extractor struct {
	stages [4]*residualBlock
	fc1    *nn.Linear
	fc2    *nn.Linear

	layers  registry
	workers int
}

func newExtractor(workers int) *Extractor {
	e := &Extractor{workers: workers}
	r := &e.layers
	e.stages[0] = newResidualBlock(r, "seq.0", 3, 64)
	e.stages[1] = newResidualBlock(r, "seq.2", 64, 128)
	e.stages[2] = newResidualBlock(r, "seq.4", 128, 256)
	e.stages[3] = newResidualBlock(r, "seq.6", 256, 512)
	e.fc1 = nn.NewLinear(512*poolGrid*poolGrid, 1024)
	r.add("seq.9", e.fc1)
	e.fc2 = nn.NewLinear(1024, bitcodec.Bits)
	r.add("seq.12", e.fc2)
	return e
}

// Infer returns one probability per payload bit.
func (e *Extractor) Infer(x *Tensor) ([]float32, error) {
	var err error
	for i, stage := range e.stages {
		if i > 0 {
			x = nn.AvgPool2(x)
		}
		if x, err = stage.forward(x, e.workers); err != nil {
			return nil, err
		}
	}
	pooled, err := nn.AdaptiveAvgPool(x, poolGrid, poolGrid)
	if err != nil {
		return nil, err
	}
	hidden, err := e.fc1.Forward(pooled.Data, e.workers)
	if err != nil {
		return nil, err
	}
	nn.LeakyReLU(hidden, nn.LeakySlope)
	probs, err := e.fc2.Forward(hidden, e.workers)
	if err != nil {
		return nil, err
	}
	nn.SigmoidAll(probs)
	return probs, nil
}
