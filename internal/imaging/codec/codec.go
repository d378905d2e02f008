// Package codec decodes uploaded image bytes into RGB pixels and encodes pixels back to
// PNG using OpenCV.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
)

// ErrUndecodable is returned when the bytes are not an image OpenCV can read.
var ErrUndecodable = errors.New("cannot decode image")

// DefaultMaxPixels is the pixel budget used by Decode and DecodeFile.
const DefaultMaxPixels = 89_478_485

// Decode is DecodeLimited with DefaultMaxPixels.
func Decode(data []byte) (*imaging.Pixels, error) {
	return DecodeLimited(data, DefaultMaxPixels)
}

// DecodeLimited returns 8-bit RGB pixels. The dimensions are read from the header
// first; images above maxPixels, or in a format without a Go header reader (PNG, JPEG,
// GIF, BMP, TIFF, WebP), are rejected before OpenCV allocates anything.
// maxPixels <= 0 disables the budget.
func DecodeLimited(data []byte, maxPixels int64) (*imaging.Pixels, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrUndecodable)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrUndecodable, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %s is %dx%d, above the %d pixel limit", ErrUndecodable, format, cfg.Width, cfg.Height, maxPixels)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", ErrUndecodable)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, fmt.Errorf("failed to convert image to RGB: %v", err)
	}

	p := &imaging.Pixels{Width: rgb.Cols(), Height: rgb.Rows(), Pix: rgb.ToBytes()}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return p, nil
}

// DecodeFile reads and decodes the image at path.
func DecodeFile(path string) (*imaging.Pixels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// EncodePNG returns p as PNG bytes.
func EncodePNG(p *imaging.Pixels) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rgb, err := gocv.NewMatFromBytes(p.Height, p.Width, gocv.MatTypeCV8UC3, p.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap pixels: %v", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	if err := gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR); err != nil {
		return nil, fmt.Errorf("failed to convert image to BGR: %v", err)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, bgr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// WritePNG encodes p and writes it to path.
func WritePNG(path string, p *imaging.Pixels) error {
	data, err := EncodePNG(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
