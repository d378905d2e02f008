package checkpoint

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() map[string]Tensor {
	return map[string]Tensor{
		"decoder.seq.9.bias":     {Shape: []int{3}, Data: []float32{1, -2, 3.5}},
		"generator.outconv.bias": {Shape: []int{2, 2}, Data: []float32{0, 0.25, -0.5, 1e-7}},
		"scalar":                 {Shape: []int{}, Data: []float32{42}},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), map[string]string{"format": "pt"}))

	// Header length is a multiple of eight.
	headerLen := binary.LittleEndian.Uint64(buf.Bytes()[:8])
	assert.Zero(t, headerLen%8)

	file, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "pt", file.Metadata["format"])
	assert.Equal(t, sample(), file.Tensors)
}

func TestSaveOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.safetensors")
	require.NoError(t, Save(path, sample(), nil))

	file, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, file.Tensors, 3)
	assert.Empty(t, file.Metadata)
}

func TestWrite_ShapeMismatch(t *testing.T) {
	err := Write(&bytes.Buffer{}, map[string]Tensor{"x": {Shape: []int{2}, Data: []float32{1}}}, nil)
	assert.Error(t, err)
}

func header(json string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint64(len(json)))
	buf.WriteString(json)
	return buf.Bytes()
}

func TestRead_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"zero header", header("")},
		{"bad json", header("{nope")},
		{"wrong dtype", header(`{"a":{"dtype":"F16","shape":[1],"data_offsets":[0,2]}}`)},
		{"offsets disagree with shape", header(`{"a":{"dtype":"F32","shape":[2],"data_offsets":[0,4]}}`)},
		{"truncated data", header(`{"a":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`)},
		{"negative dimension", header(`{"a":{"dtype":"F32","shape":[-1],"data_offsets":[8,4]}}`)},
		{"reversed offsets", header(`{"a":{"dtype":"F32","shape":[1],"data_offsets":[8,4]}}`)},
		{"element count overflow", header(`{"a":{"dtype":"F32","shape":[4611686018427387904],"data_offsets":[0,0]}}`)},
		{"overflow across dimensions", header(`{"a":{"dtype":"F32","shape":[4294967296,4294967296],"data_offsets":[0,0]}}`)},
		{"blob beyond limit", header(`{"a":{"dtype":"F32","shape":[1099511627776],"data_offsets":[0,4398046511104]}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestOpen_RejectsOffsetsPastEndOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.safetensors")
	data := append(header(`{"a":{"dtype":"F32","shape":[262144],"data_offsets":[0,1048576]}}`), make([]byte, 16)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
