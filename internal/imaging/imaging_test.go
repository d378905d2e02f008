package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/nn"
)

func TestSolid_ToTensor(t *testing.T) {
	p := Solid(128, 128, 120, 180, 240)
	tensor, err := ToTensor(p)
	require.NoError(t, err)

	assert.Equal(t, 3, tensor.C)
	assert.Equal(t, ModelSize, tensor.H)
	assert.Equal(t, ModelSize, tensor.W)

	want := []float32{120, 180, 240}
	for c := 0; c < 3; c++ {
		v := want[c]/255*2 - 1
		assert.InDelta(t, v, tensor.At(c, 0, 0), 1e-5)
		assert.InDelta(t, v, tensor.At(c, 95, 95), 1e-5)
	}
}

func TestToTensor_RejectsEmpty(t *testing.T) {
	_, err := ToTensor(&Pixels{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ToTensor(&Pixels{Width: 2, Height: 2, Pix: make([]uint8, 5)})
	assert.Error(t, err)
}

func TestFromTensor_ClipsAndTruncates(t *testing.T) {
	tensor, err := nn.FromSlice(3, 1, 2, []float32{
		-2, 1, // R
		0, 0.999, // G
		0.5, 3, // B
	})
	require.NoError(t, err)

	p, err := FromTensor(tensor)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Width)
	assert.Equal(t, 1, p.Height)
	// 0 -> 127.5 -> 127; 0.999 -> 254.87 -> 254; 0.5 -> 191.25 -> 191
	assert.Equal(t, []uint8{0, 127, 191, 255, 254, 255}, p.Pix)
}

func TestFromTensor_WrongChannels(t *testing.T) {
	_, err := FromTensor(nn.NewTensor(1, 2, 2))
	assert.ErrorIs(t, err, nn.ErrShape)
}

func TestRoundTrip_SolidSurvivesTensorTransform(t *testing.T) {
	p := Solid(96, 96, 10, 200, 77)
	tensor, err := ToTensor(p)
	require.NoError(t, err)
	back, err := FromTensor(tensor)
	require.NoError(t, err)

	for i := 0; i < len(back.Pix); i += 3 {
		assert.InDelta(t, 10, back.Pix[i], 1)
		assert.InDelta(t, 200, back.Pix[i+1], 1)
		assert.InDelta(t, 77, back.Pix[i+2], 1)
	}
}

func TestFromImage_DropsAlphaAndOffsets(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	img.SetNRGBA(5, 5, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetNRGBA(6, 5, color.NRGBA{R: 9, G: 8, B: 7, A: 255})

	p := FromImage(img)
	assert.Equal(t, 2, p.Width)
	assert.Equal(t, 1, p.Height)
	assert.Equal(t, []uint8{1, 2, 3, 9, 8, 7}, p.Pix)

	back := FromImage(p.RGBA())
	assert.Equal(t, p.Pix, back.Pix)
}

func TestResizeBicubic_KeepsSolidColour(t *testing.T) {
	p := Solid(40, 30, 50, 60, 70)
	out := ResizeBicubic(p, 17, 23)
	require.NoError(t, out.Validate())
	assert.True(t, out.SameSize(&Pixels{Width: 17, Height: 23}))
	for i := 0; i < len(out.Pix); i += 3 {
		assert.InDelta(t, 50, out.Pix[i], 1)
		assert.InDelta(t, 60, out.Pix[i+1], 1)
		assert.InDelta(t, 70, out.Pix[i+2], 1)
	}
}
