package bundle

import (
	"errors"
	"strings"
	"testing"
)

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{0.25, -1, 0, 3.5}
	enc := EncodeVector(in)
	out, err := DecodeVector(enc, len(in))
	if err != nil {
		t.Fatalf("DecodeVector: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("component %d changed: %v -> %v", i, in[i], out[i])
		}
	}
}

func TestDecodeVector_WrongWidth(t *testing.T) {
	enc := EncodeVector([]float32{1, 2, 3})
	if _, err := DecodeVector(enc, 4); err == nil {
		t.Fatalf("expected width error")
	}
}

func TestDecodeVector_BadBase64(t *testing.T) {
	if _, err := DecodeVector("not base64!!", 2); err == nil {
		t.Fatalf("expected encoding error")
	}
}

func testBundle(buildID string) *Bundle {
	return &Bundle{
		BuildID:         buildID,
		ModelID:         "test-model",
		Dims:            2,
		Dtype:           DtypeFloat32,
		ChunkingID:      "agents:v1",
		FileFingerprint: strings.Repeat("b", 64),
		Chunks: []Chunk{
			{Index: 0, AgentName: "search", SourceText: "search ...", Vector: EncodeVector([]float32{1, 0})},
			{Index: 1, AgentName: "translate", SourceText: "translate ...", Vector: EncodeVector([]float32{0, 1})},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	id := strings.Repeat("a", 64)
	if err := testBundle(id).Validate(id, 2); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_BuildIDMismatch(t *testing.T) {
	b := testBundle(strings.Repeat("a", 64))
	err := b.Validate(strings.Repeat("c", 64), 2)
	if !errors.Is(err, ErrBuildIDMismatch) {
		t.Fatalf("expected ErrBuildIDMismatch, got %v", err)
	}
}

func TestValidate_DimsMismatch(t *testing.T) {
	id := strings.Repeat("a", 64)
	b := testBundle(id)
	b.Dims = 256
	err := b.Validate(id, 384)
	if !errors.Is(err, ErrDimsMismatch) {
		t.Fatalf("expected ErrDimsMismatch, got %v", err)
	}
}

func TestValidate_BadChunkVector(t *testing.T) {
	id := strings.Repeat("a", 64)
	b := testBundle(id)
	b.Chunks[1].Vector = EncodeVector([]float32{1, 2, 3})
	if err := b.Validate(id, 2); err == nil {
		t.Fatalf("expected chunk width error")
	}
}

func TestValidate_BadDtype(t *testing.T) {
	id := strings.Repeat("a", 64)
	b := testBundle(id)
	b.Dtype = "float64"
	if err := b.Validate(id, 2); err == nil {
		t.Fatalf("expected dtype error")
	}
}

func TestChunkVector(t *testing.T) {
	id := strings.Repeat("a", 64)
	b := testBundle(id)
	v, err := b.ChunkVector(1)
	if err != nil {
		t.Fatalf("ChunkVector: %v", err)
	}
	if v[0] != 0 || v[1] != 1 {
		t.Fatalf("unexpected vector: %v", v)
	}
	if _, err := b.ChunkVector(2); err == nil {
		t.Fatalf("expected range error")
	}
}
