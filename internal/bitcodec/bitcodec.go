// Package bitcodec converts short text messages to the fixed 256-bit payload the
// embedding network carries, and turns recovered bits back into text.
package bitcodec

import (
	"encoding/base64"
	"strings"
)

const (
	// Capacity is the number of characters one image carries.
	Capacity = 32
	// Bits is the payload length in bits.
	Bits = Capacity * 8
	// RawPrefix marks payloads that are not printable text.
	RawPrefix = "RAWB64:"
)

// Encode clips text to Capacity characters, pads it with spaces and returns 8 bits per
// character, most significant bit first.
func Encode(text string) []uint8 {
	return EncodeN(text, Capacity)
}

// EncodeN is Encode with an explicit character capacity.
func EncodeN(text string, capacity int) []uint8 {
	chars := make([]byte, 0, capacity)
	for _, r := range text {
		if len(chars) == capacity {
			break
		}
		if r > 0xff {
			r = '?'
		}
		chars = append(chars, byte(r))
	}
	for len(chars) < capacity {
		chars = append(chars, ' ')
	}

	bits := make([]uint8, 0, capacity*8)
	for _, c := range chars {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (c>>shift)&1)
		}
	}
	return bits
}

// Threshold maps extraction probabilities to bits: p > 0.5 is a one.
func Threshold(probs []float32) []uint8 {
	bits := make([]uint8, len(probs))
	for i, p := range probs {
		if p > 0.5 {
			bits[i] = 1
		}
	}
	return bits
}

// Pack groups bits into bytes, MSB first. A trailing group shorter than eight bits is
// read as a short binary number.
func Pack(bits []uint8) []byte {
	out := make([]byte, 0, (len(bits)+7)/8)
	for i := 0; i < len(bits); i += 8 {
		end := min(i+8, len(bits))
		var b byte
		for _, bit := range bits[i:end] {
			b = b<<1 | bit&1
		}
		out = append(out, b)
	}
	return out
}

// Decode turns bits into text. Payloads made only of printable ASCII, tab, LF and CR are
// returned as text with trailing NULs removed; anything else comes back as
// RawPrefix followed by standard padded base64 of the bytes.
func Decode(bits []uint8) string {
	data := Pack(bits)
	if printable(data) {
		return strings.TrimRight(string(data), "\x00")
	}
	return RawPrefix + base64.StdEncoding.EncodeToString(data)
}

// DecodeText is the best-effort decoder for raw byte payloads: invalid UTF-8 sequences
// become U+FFFD and trailing NULs are dropped.
func DecodeText(data []byte) string {
	return strings.TrimRight(strings.ToValidUTF8(string(data), "�"), "\x00")
}

// DecodeRaw reverses the RawPrefix wrapping. ok is false for plain text.
func DecodeRaw(s string) (data []byte, ok bool) {
	payload, found := strings.CutPrefix(s, RawPrefix)
	if !found {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return data, true
}

func printable(data []byte) bool {
	for _, c := range data {
		if (c < 32 || c > 126) && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}
