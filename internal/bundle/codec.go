package bundle

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVector encodes v as base64 over little-endian float32 words.
func EncodeVector(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeVector decodes a base64 little-endian float32 vector and requires it
// to be exactly dims wide.
func DecodeVector(s string, dims int) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid vector encoding: %w", err)
	}
	if len(buf) != dims*4 {
		return nil, fmt.Errorf("vector is %d bytes, want %d (dims=%d)", len(buf), dims*4, dims)
	}
	out := make([]float32, dims)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}
