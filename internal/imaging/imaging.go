// Package imaging converts between display-space RGB pixel arrays and the normalised
// 3×96×96 tensors the networks consume.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/nn"
)

// ModelSize is the square side every network works at.
const ModelSize = 96

// ErrEmpty is returned for images with no pixels.
var ErrEmpty = errors.New("image has no pixels")

// Pixels is an interleaved RGB image, row-major, 3 bytes per pixel.
type Pixels struct {
	Width, Height int
	Pix           []uint8
}

// New allocates a black image.
func New(width, height int) *Pixels {
	return &Pixels{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// Solid returns a width×height image filled with one colour.
func Solid(width, height int, r, g, b uint8) *Pixels {
	p := New(width, height)
	for i := 0; i < len(p.Pix); i += 3 {
		p.Pix[i], p.Pix[i+1], p.Pix[i+2] = r, g, b
	}
	return p
}

// Validate reports whether the buffer matches its dimensions.
func (p *Pixels) Validate() error {
	if p == nil || p.Width <= 0 || p.Height <= 0 {
		return ErrEmpty
	}
	if len(p.Pix) != p.Width*p.Height*3 {
		return fmt.Errorf("pixel buffer holds %d bytes, want %d for %dx%d", len(p.Pix), p.Width*p.Height*3, p.Width, p.Height)
	}
	return nil
}

// SameSize reports whether p and o have identical dimensions.
func (p *Pixels) SameSize(o *Pixels) bool {
	return p.Width == o.Width && p.Height == o.Height
}

// FromImage flattens any image.Image into RGB, dropping alpha.
func FromImage(img image.Image) *Pixels {
	b := img.Bounds()
	p := New(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < p.Height; y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < p.Width; x++ {
				copy(p.Pix[(y*p.Width+x)*3:], row[x*4:x*4+3])
			}
		}
		return p
	}
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*p.Width + x) * 3
			p.Pix[i], p.Pix[i+1], p.Pix[i+2] = c.R, c.G, c.B
		}
	}
	return p
}

// RGBA returns an opaque image.RGBA copy.
func (p *Pixels) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i, j := 0, 0; i < len(p.Pix); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = p.Pix[i], p.Pix[i+1], p.Pix[i+2], 0xff
	}
	return img
}

// Resize scales p to width×height with the given interpolator.
func Resize(p *Pixels, width, height int, interp draw.Interpolator) *Pixels {
	if p.Width == width && p.Height == height {
		out := New(width, height)
		copy(out.Pix, p.Pix)
		return out
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	interp.Scale(dst, dst.Bounds(), p.RGBA(), image.Rect(0, 0, p.Width, p.Height), draw.Src, nil)
	return FromImage(dst)
}

// ResizeBicubic is used when comparing images of different sizes.
func ResizeBicubic(p *Pixels, width, height int) *Pixels {
	return Resize(p, width, height, draw.CatmullRom)
}

// ToTensor resizes to 96×96 (bilinear) and maps 0..255 to [-1, 1].
func ToTensor(p *Pixels) (*nn.Tensor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	small := Resize(p, ModelSize, ModelSize, draw.BiLinear)
	t := nn.NewTensor(3, ModelSize, ModelSize)
	plane := ModelSize * ModelSize
	for i := 0; i < plane; i++ {
		for c := 0; c < 3; c++ {
			v := float32(small.Pix[i*3+c]) / 255
			t.Data[c*plane+i] = (v - 0.5) / 0.5
		}
	}
	return t, nil
}

// FromTensor maps a [-1, 1] RGB tensor back to pixels: x*0.5+0.5, ×255, clipped and
// truncated to uint8.
func FromTensor(t *nn.Tensor) (*Pixels, error) {
	if t.C != 3 {
		return nil, fmt.Errorf("%w: expected 3 channels, got %s", nn.ErrShape, t.Shape())
	}
	p := New(t.W, t.H)
	plane := t.H * t.W
	for i := 0; i < plane; i++ {
		for c := 0; c < 3; c++ {
			v := (t.Data[c*plane+i]*0.5 + 0.5) * 255
			switch {
			case v <= 0 || v != v:
				v = 0
			case v > 255:
				v = 255
			}
			p.Pix[i*3+c] = uint8(v)
		}
	}
	return p, nil
}
