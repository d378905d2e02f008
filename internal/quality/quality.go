// Package quality scores an embedding: PSNR and SSIM between cover and stego pixels,
// bit error rate between payloads, and summary pixel statistics.
package quality

import (
	"math"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
)

// MaxPSNR is reported for identical images.
const MaxPSNR = 100.0

const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// Stats summarises every channel value of an image.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Report is the quality of one image compared against a reference.
type Report struct {
	PSNR float64 `json:"psnr"`
	SSIM float64 `json:"ssim"`
	BER  float64 `json:"ber"`
}

// Round rounds half to even at the given number of decimals.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*scale) / scale
}

// PSNR returns the peak signal-to-noise ratio in dB, rounded to two decimals.
// Both images must have the same dimensions.
func PSNR(a, b *imaging.Pixels) float64 {
	var sum float64
	for i := range a.Pix {
		d := float64(a.Pix[i]) - float64(b.Pix[i])
		sum += d * d
	}
	if sum == 0 {
		return MaxPSNR
	}
	mse := sum / float64(len(a.Pix))
	return Round(20*math.Log10(255/math.Sqrt(mse)), 2)
}

// SSIM computes a single global structural similarity over per-pixel luminance
// (the mean of the three channels), rounded to four decimals.
func SSIM(a, b *imaging.Pixels) float64 {
	la, lb := luminance(a), luminance(b)
	n := float64(len(la))
	if n == 0 {
		return 1
	}

	var muA, muB float64
	for i := range la {
		muA += la[i]
		muB += lb[i]
	}
	muA /= n
	muB /= n

	var varA, varB, cov float64
	for i := range la {
		da, db := la[i]-muA, lb[i]-muB
		varA += da * da
		varB += db * db
		cov += da * db
	}
	varA /= n
	varB /= n
	cov /= n

	num := (2*muA*muB + ssimC1) * (2*cov + ssimC2)
	den := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)
	return Round(num/den, 4)
}

func luminance(p *imaging.Pixels) []float64 {
	out := make([]float64, len(p.Pix)/3)
	for i := range out {
		out[i] = (float64(p.Pix[i*3]) + float64(p.Pix[i*3+1]) + float64(p.Pix[i*3+2])) / 3
	}
	return out
}

// BER is the fraction of positions where a and b differ, rounded to six decimals.
// Sequences of different length score 1.0; two empty sequences score 0.
func BER(a, b []uint8) float64 {
	if len(a) != len(b) {
		return 1.0
	}
	if len(a) == 0 {
		return 0
	}
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return Round(float64(diff)/float64(len(a)), 6)
}

// PixelStats returns mean, population std, min and max over all channel values,
// each rounded to two decimals.
func PixelStats(p *imaging.Pixels) Stats {
	if len(p.Pix) == 0 {
		return Stats{}
	}
	var sum float64
	lo, hi := p.Pix[0], p.Pix[0]
	for _, v := range p.Pix {
		sum += float64(v)
		lo = min(lo, v)
		hi = max(hi, v)
	}
	n := float64(len(p.Pix))
	mean := sum / n
	var sq float64
	for _, v := range p.Pix {
		d := float64(v) - mean
		sq += d * d
	}
	return Stats{
		Mean: Round(mean, 2),
		Std:  Round(math.Sqrt(sq/n), 2),
		Min:  float64(lo),
		Max:  float64(hi),
	}
}

// Compare builds the report of candidate against reference. Bits are optional; when
// either side is nil the BER field is left at zero.
func Compare(reference, candidate *imaging.Pixels, refBits, gotBits []uint8) Report {
	r := Report{
		PSNR: PSNR(reference, candidate),
		SSIM: SSIM(reference, candidate),
	}
	if refBits != nil && gotBits != nil {
		r.BER = BER(refBits, gotBits)
	}
	return r
}

// Performance converts a stego report into the percentage scores shown to users.
type Performance struct {
	QualityScore      float64 `json:"quality_score"`
	SimilarityScore   float64 `json:"similarity_score"`
	EmbeddingAccuracy float64 `json:"embedding_accuracy"`
}

func (r Report) Performance() Performance {
	return Performance{
		QualityScore:      Round(r.PSNR/50*100, 2),
		SimilarityScore:   Round(r.SSIM*100, 2),
		EmbeddingAccuracy: Round((1-r.BER)*100, 2),
	}
}
