package ai

import (
	"fmt"
	"math"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/nn"
)

// detectorConvIndex is the position of each conv inside the "main" sequential.
var detectorConvIndex = [4]int{0, 3, 7, 11}

// Detector is the spectrally-normalised steganalysis classifier. Weights use the
// "discriminator." prefix.
type Detector struct {
	convs [4]*nn.SpectralConv2d
	norms [4]*nn.GroupNorm // norms[0] is nil: the first stage has no normalisation
	fc    *nn.Linear

	layers  registry
	workers int
}

func newDetector(workers int) *Detector {
	d := &Detector{workers: workers}
	r := &d.layers
	channels := [5]int{3, 64, 128, 256, 512}
	groups := [4]int{0, 8, 16, 32}
	for i := 0; i < 4; i++ {
		d.convs[i] = nn.NewSpectralConv2d(channels[i], channels[i+1], 4, 2, 1)
		r.add(fmt.Sprintf("main.%d", detectorConvIndex[i]), d.convs[i])
		if groups[i] > 0 {
			d.norms[i] = nn.NewGroupNorm(groups[i], channels[i+1])
			r.add(fmt.Sprintf("main.%d", detectorConvIndex[i]+1), d.norms[i])
		}
	}
	d.fc = nn.NewLinear(512*poolGrid*poolGrid, 1)
	r.add("main.16", d.fc)
	return d
}

// prepare derives the effective conv weights from weight_orig, u and v.
func (d *Detector) prepare() error {
	for i, c := range d.convs {
		if err := c.Normalize(); err != nil {
			return &Error{Op: fmt.Sprintf("discriminator.main.%d", detectorConvIndex[i]), Kind: KindInternal, Err: err}
		}
	}
	return nil
}

// Infer returns the raw logit.
func (d *Detector) Infer(x *Tensor) (float32, error) {
	var err error
	for i := range d.convs {
		if x, err = d.convs[i].Forward(x, d.workers); err != nil {
			return 0, err
		}
		if d.norms[i] != nil {
			if x, err = d.norms[i].Forward(x, d.workers); err != nil {
				return 0, err
			}
		}
		nn.LeakyReLU(x.Data, nn.LeakySlope)
	}
	pooled, err := nn.AdaptiveAvgPool(x, poolGrid, poolGrid)
	if err != nil {
		return 0, err
	}
	logit, err := d.fc.Forward(pooled.Data, d.workers)
	if err != nil {
		return 0, err
	}
	return logit[0], nil
}

// Verdict is the steganalysis decision for one image.
type Verdict struct {
	IsStego    bool    `json:"is_stego"`
	Confidence float64 `json:"confidence"`
}

// Classify applies the decision rule: sigmoid(logit) below 0.5 means stego.
func Classify(logit float32) Verdict {
	p := 1 / (1 + math.Exp(-float64(logit)))
	return Verdict{IsStego: p < 0.5, Confidence: math.Abs(0.5-p) * 2}
}
