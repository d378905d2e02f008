package nn

import "math"

// LeakySlope is the negative slope every network in this repository uses.
const LeakySlope = 0.2

// LeakyReLU applies max(x, slope*x) in place.
func LeakyReLU(data []float32, slope float32) {
	for i, v := range data {
		if v < 0 {
			data[i] = v * slope
		}
	}
}

// Tanh applies tanh in place.
func Tanh(data []float32) {
	for i, v := range data {
		data[i] = float32(math.Tanh(float64(v)))
	}
}

// Sigmoid returns 1 / (1 + e^-x).
func Sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

// SigmoidAll applies Sigmoid in place.
func SigmoidAll(data []float32) {
	for i, v := range data {
		data[i] = Sigmoid(v)
	}
}
