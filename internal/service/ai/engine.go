package ai

import (
	"strings"
	"unicode/utf8"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/bitcodec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/quality"
)

// Engine runs the embed, extract and analyze operations against a shared ModelContext.
type Engine struct {
	models *ModelContext
}

func NewEngine(models *ModelContext) *Engine {
	return &Engine{models: models}
}

// Models returns the context the engine reads from.
func (e *Engine) Models() *ModelContext {
	return e.models
}

// EmbedResult is everything produced by one embedding.
type EmbedResult struct {
	Stego *imaging.Pixels
	// Message is the text actually carried: clipped to 32 characters and space padded.
	Message string
	Bits    []uint8

	CoverReport quality.Report
	StegoReport quality.Report
	CoverStats  quality.Stats
	StegoStats  quality.Stats
}

// Performance summarises StegoReport as percentages.
func (r *EmbedResult) Performance() quality.Performance {
	return r.StegoReport.Performance()
}

// ExtractResult is the payload recovered from an image.
type ExtractResult struct {
	Message string
	Bits    []uint8
}

// Analysis is the detector output for one image.
type Analysis struct {
	Verdict
	Logit float32 `json:"-"`
}

// Embed hides message in cover and scores the result. Messages longer than 32
// characters are truncated.
func (e *Engine) Embed(cover *imaging.Pixels, message string) (*EmbedResult, error) {
	const op = "embed"
	if err := cover.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	input, err := imaging.ToTensor(cover)
	if err != nil {
		return nil, invalid(op, err)
	}

	bits := bitcodec.Encode(message)
	stegoTensor, err := e.models.embedder.Infer(EmbedInput{Cover: input, Bits: bits})
	if err != nil {
		return nil, internal(op, err)
	}
	stego, err := imaging.FromTensor(stegoTensor)
	if err != nil {
		return nil, internal(op, err)
	}

	reference := cover
	if !cover.SameSize(stego) {
		reference = imaging.ResizeBicubic(cover, stego.Width, stego.Height)
	}

	probs, err := e.models.extractor.Infer(stegoTensor)
	if err != nil {
		return nil, internal(op, err)
	}
	recovered := bitcodec.Threshold(probs)

	return &EmbedResult{
		Stego:       stego,
		Message:     padMessage(message),
		Bits:        bits,
		CoverReport: quality.Compare(reference, reference, bits, bits),
		StegoReport: quality.Compare(reference, stego, bits, recovered),
		CoverStats:  quality.PixelStats(reference),
		StegoStats:  quality.PixelStats(stego),
	}, nil
}

// Extract reads a payload from any image. Images that never carried one decode to
// arbitrary text or a RAWB64 string.
func (e *Engine) Extract(img *imaging.Pixels) (*ExtractResult, error) {
	const op = "extract"
	if err := img.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	input, err := imaging.ToTensor(img)
	if err != nil {
		return nil, invalid(op, err)
	}
	probs, err := e.models.extractor.Infer(input)
	if err != nil {
		return nil, internal(op, err)
	}
	bits := bitcodec.Threshold(probs)
	return &ExtractResult{Message: bitcodec.Decode(bits), Bits: bits}, nil
}

// Analyze classifies img as stego or clean.
func (e *Engine) Analyze(img *imaging.Pixels) (*Analysis, error) {
	const op = "analyze"
	if err := img.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	input, err := imaging.ToTensor(img)
	if err != nil {
		return nil, invalid(op, err)
	}
	logit, err := e.models.detector.Infer(input)
	if err != nil {
		return nil, internal(op, err)
	}
	return &Analysis{Verdict: Classify(logit), Logit: logit}, nil
}

func padMessage(message string) string {
	if utf8.RuneCountInString(message) > bitcodec.Capacity {
		message = string([]rune(message)[:bitcodec.Capacity])
	}
	return message + strings.Repeat(" ", bitcodec.Capacity-utf8.RuneCountInString(message))
}
