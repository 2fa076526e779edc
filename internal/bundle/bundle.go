// Package bundle defines the embedding bundle cached under a build id: one
// base64-encoded float32 vector per agent plus provenance metadata. The JSON
// shape is the wire format of the cache store and stays portable across
// implementations reading the same store.
package bundle

import (
	"errors"
	"fmt"
)

// DtypeFloat32 is the only vector encoding the cache protocol carries today.
const DtypeFloat32 = "float32"

var (
	// ErrBuildIDMismatch indicates a bundle whose declared build_id does not
	// match the key it was fetched or stored under.
	ErrBuildIDMismatch = errors.New("bundle build_id mismatch")

	// ErrDimsMismatch indicates a bundle built for a different embedding width.
	ErrDimsMismatch = errors.New("bundle dims mismatch")
)

// Chunk is one embedded catalog entry.
type Chunk struct {
	Index      int    `json:"index"`
	AgentName  string `json:"agent_name"`
	SourceText string `json:"source_text"`
	Vector     string `json:"vector"` // base64 little-endian float32, Dims wide
}

// Bundle is the cached artifact, self-describing and re-verifiable against
// the build id it is stored under.
type Bundle struct {
	BuildID         string  `json:"build_id"`
	ModelID         string  `json:"model_id"`
	Dims            int     `json:"dims"`
	Dtype           string  `json:"dtype"`
	ChunkingID      string  `json:"chunking_id"`
	FileFingerprint string  `json:"file_fingerprint"`
	Chunks          []Chunk `json:"chunks"`
}

// Validate checks the bundle against the build id it is keyed by and the
// embedding width of the active model. A failure means the bundle must not
// be used to build an index.
func (b *Bundle) Validate(expectedBuildID string, expectedDims int) error {
	if b.BuildID != expectedBuildID {
		return fmt.Errorf("%w: bundle declares %q, stored under %q", ErrBuildIDMismatch, b.BuildID, expectedBuildID)
	}
	if b.Dims <= 0 {
		return fmt.Errorf("invalid dims: %d", b.Dims)
	}
	if b.Dims != expectedDims {
		return fmt.Errorf("%w: bundle has %d, model expects %d", ErrDimsMismatch, b.Dims, expectedDims)
	}
	if b.Dtype != DtypeFloat32 {
		return fmt.Errorf("unsupported dtype: %q", b.Dtype)
	}
	for i, c := range b.Chunks {
		if c.AgentName == "" {
			return fmt.Errorf("chunk %d has empty agent_name", i)
		}
		if _, err := DecodeVector(c.Vector, b.Dims); err != nil {
			return fmt.Errorf("chunk %d (%s): %w", i, c.AgentName, err)
		}
	}
	return nil
}

// ChunkVector decodes the vector of chunk i.
func (b *Bundle) ChunkVector(i int) ([]float32, error) {
	if i < 0 || i >= len(b.Chunks) {
		return nil, fmt.Errorf("chunk index %d out of range", i)
	}
	return DecodeVector(b.Chunks[i].Vector, b.Dims)
}
