package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
)

// ========================================
// PSNR / SSIM
// ========================================

func TestPSNR_IdenticalIsSentinel(t *testing.T) {
	p := imaging.Solid(8, 8, 1, 2, 3)
	assert.Equal(t, MaxPSNR, PSNR(p, p))
}

func TestPSNR_KnownValue(t *testing.T) {
	a := imaging.Solid(4, 4, 100, 100, 100)
	b := imaging.Solid(4, 4, 110, 100, 100)
	// MSE = 100/3 across all channel values.
	want := Round(20*math.Log10(255/math.Sqrt(100.0/3)), 2)
	assert.Equal(t, want, PSNR(a, b))
	assert.InDelta(t, 32.90, PSNR(a, b), 0.01)
}

func TestPSNR_NoUint8Wraparound(t *testing.T) {
	a := imaging.Solid(2, 2, 0, 0, 0)
	b := imaging.Solid(2, 2, 255, 255, 255)
	assert.Equal(t, 0.0, PSNR(a, b))
	assert.Equal(t, 0.0, PSNR(b, a))
}

func TestSSIM_SelfSimilarity(t *testing.T) {
	p := imaging.New(6, 5)
	for i := range p.Pix {
		p.Pix[i] = uint8(i * 13)
	}
	assert.Equal(t, 1.0, SSIM(p, p))
	assert.Equal(t, 1.0, SSIM(imaging.Solid(3, 3, 9, 9, 9), imaging.Solid(3, 3, 9, 9, 9)))
}

func TestSSIM_DropsForDifferentImages(t *testing.T) {
	a := imaging.New(8, 8)
	b := imaging.New(8, 8)
	for i := range a.Pix {
		a.Pix[i] = uint8(i)
		b.Pix[i] = uint8(255 - i)
	}
	assert.Less(t, SSIM(a, b), 0.5)
}

func TestProperty_SSIMBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		a := imaging.New(n, 1)
		b := imaging.New(n, 1)
		copy(a.Pix, rapid.SliceOfN(rapid.Byte(), n*3, n*3).Draw(t, "a"))
		copy(b.Pix, rapid.SliceOfN(rapid.Byte(), n*3, n*3).Draw(t, "b"))

		s := SSIM(a, b)
		if s < -1 || s > 1 {
			t.Fatalf("ssim out of range: %v", s)
		}
		if SSIM(a, b) != SSIM(b, a) {
			t.Fatalf("ssim not symmetric")
		}
		if PSNR(a, a) != MaxPSNR {
			t.Fatalf("psnr identity broken")
		}
	})
}

// ========================================
// BER / stats / rounding
// ========================================

func TestBER(t *testing.T) {
	tests := []struct {
		name string
		a, b []uint8
		want float64
	}{
		{"identical", []uint8{1, 0, 1}, []uint8{1, 0, 1}, 0},
		{"one of four", []uint8{1, 0, 1, 1}, []uint8{1, 1, 1, 1}, 0.25},
		{"length mismatch", []uint8{1}, []uint8{1, 0}, 1},
		{"empty", nil, nil, 0},
		{"thirds", []uint8{1, 0, 0}, []uint8{0, 0, 0}, 0.333333},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BER(tt.a, tt.b))
		})
	}
}

func TestPixelStats(t *testing.T) {
	p := &imaging.Pixels{Width: 2, Height: 1, Pix: []uint8{0, 10, 20, 30, 40, 50}}
	s := PixelStats(p)
	assert.Equal(t, 25.0, s.Mean)
	assert.Equal(t, 17.08, s.Std)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 50.0, s.Max)

	assert.Equal(t, Stats{}, PixelStats(&imaging.Pixels{}))
}

func TestRound_HalfToEven(t *testing.T) {
	assert.Equal(t, 0.0, Round(0.5, 0))
	assert.Equal(t, 2.0, Round(1.5, 0))
	assert.Equal(t, 1.25, Round(1.2500001, 2))
}

func TestCompare_AndPerformance(t *testing.T) {
	p := imaging.Solid(4, 4, 5, 6, 7)
	r := Compare(p, p, []uint8{1, 1}, []uint8{1, 0})
	assert.Equal(t, Report{PSNR: 100, SSIM: 1, BER: 0.5}, r)

	perf := r.Performance()
	assert.Equal(t, 200.0, perf.QualityScore)
	assert.Equal(t, 100.0, perf.SimilarityScore)
	assert.Equal(t, 50.0, perf.EmbeddingAccuracy)

	assert.Equal(t, 0.0, Compare(p, p, nil, nil).BER)
}
