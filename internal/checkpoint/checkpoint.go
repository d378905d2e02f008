// Package checkpoint reads and writes model weights in the safetensors layout:
// an 8-byte little-endian header length, a JSON header describing every tensor, then
// the raw little-endian tensor bytes.
package checkpoint

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

const (
	dtypeF32     = "F32"
	metadataKey  = "__metadata__"
	maxHeaderLen = 100 << 20
	// maxDataLen bounds the tensor blob when the input size is unknown.
	maxDataLen = 4 << 30
)

// ErrFormat is returned for files that are not valid float32 safetensors.
var ErrFormat = errors.New("invalid checkpoint")

// Tensor is one named weight.
type Tensor struct {
	Shape []int
	Data  []float32
}

// File is a fully decoded checkpoint.
type File struct {
	Tensors  map[string]Tensor
	Metadata map[string]string
}

type headerEntry struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Open reads the checkpoint at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return read(bufio.NewReader(f), info.Size())
}

// Read decodes a checkpoint. Only F32 tensors are accepted.
func Read(r io.Reader) (*File, error) {
	return read(r, -1)
}

// read decodes a checkpoint of size bytes; a negative size means unknown.
func read(r io.Reader, size int64) (*File, error) {
	var headerLen uint64
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("%w: reading header length: %v", ErrFormat, err)
	}
	if headerLen == 0 || headerLen > maxHeaderLen || (size >= 0 && headerLen > uint64(size)-8) {
		return nil, fmt.Errorf("%w: header length %d", ErrFormat, headerLen)
	}
	limit := int64(maxDataLen)
	if size >= 0 {
		limit = size - 8 - int64(headerLen)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrFormat, err)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("%w: header json: %v", ErrFormat, err)
	}

	file := &File{Tensors: make(map[string]Tensor), Metadata: map[string]string{}}
	entries := make(map[string]headerEntry, len(header))
	var dataLen int64
	for name, msg := range header {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &file.Metadata); err != nil {
				return nil, fmt.Errorf("%w: metadata: %v", ErrFormat, err)
			}
			continue
		}
		var e headerEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrFormat, name, err)
		}
		if e.DType != dtypeF32 {
			return nil, fmt.Errorf("%w: tensor %s has dtype %s, want %s", ErrFormat, name, e.DType, dtypeF32)
		}
		n, ok := checkedNumel(e.Shape, limit/4)
		if !ok {
			return nil, fmt.Errorf("%w: tensor %s has invalid shape %v", ErrFormat, name, e.Shape)
		}
		start, end := e.DataOffsets[0], e.DataOffsets[1]
		if start < 0 || end < start || end > limit || end-start != n*4 {
			return nil, fmt.Errorf("%w: tensor %s offsets %v do not match shape %v", ErrFormat, name, e.DataOffsets, e.Shape)
		}
		entries[name] = e
		dataLen = max(dataLen, e.DataOffsets[1])
	}

	data, err := io.ReadAll(io.LimitReader(r, dataLen))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %d data bytes: %v", ErrFormat, dataLen, err)
	}
	if int64(len(data)) != dataLen {
		return nil, fmt.Errorf("%w: read %d of %d data bytes", ErrFormat, len(data), dataLen)
	}

	for name, e := range entries {
		chunk := data[e.DataOffsets[0]:e.DataOffsets[1]]
		values := make([]float32, len(chunk)/4)
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(chunk[i*4:]))
		}
		file.Tensors[name] = Tensor{Shape: e.Shape, Data: values}
	}
	return file, nil
}

// Write encodes tensors in name order.
func Write(w io.Writer, tensors map[string]Tensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}
	var offset int64
	for _, name := range names {
		t := tensors[name]
		if numel(t.Shape) != len(t.Data) {
			return fmt.Errorf("tensor %s: shape %v holds %d values, got %d", name, t.Shape, numel(t.Shape), len(t.Data))
		}
		size := int64(len(t.Data)) * 4
		header[name] = headerEntry{DType: dtypeF32, Shape: t.Shape, DataOffsets: [2]int64{offset, offset + size}}
		offset += size
	}

	raw, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	// Data must start on an 8-byte boundary.
	for len(raw)%8 != 0 {
		raw = append(raw, ' ')
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(raw))); err != nil {
		return err
	}
	if _, err := bw.Write(raw); err != nil {
		return err
	}
	var buf [4]byte
	for _, name := range names {
		for _, v := range tensors[name].Data {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Save writes the checkpoint to path, replacing any existing file.
func Save(path string, tensors map[string]Tensor, metadata map[string]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, tensors, metadata); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// checkedNumel multiplies the dimensions of shape. ok is false for negative
// dimensions or a product above limit.
func checkedNumel(shape []int, limit int64) (n int64, ok bool) {
	n = 1
	for _, d := range shape {
		if d < 0 {
			return 0, false
		}
		if d != 0 && n > limit/int64(d) {
			return 0, false
		}
		n *= int64(d)
	}
	return n, n <= limit
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
