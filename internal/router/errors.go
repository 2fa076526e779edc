package router

import "errors"

var (
	// ErrNotReady indicates Route was called before a successful Initialize.
	ErrNotReady = errors.New("router is not ready")

	// ErrEmptyIndex indicates the catalog produced no indexed agents.
	ErrEmptyIndex = errors.New("no agents available")
)

// CatalogLoadError wraps a failure to load or fingerprint the catalog.
// It is fatal to the Initialize attempt; no partial index is installed.
type CatalogLoadError struct {
	Err error
}

func (e *CatalogLoadError) Error() string {
	return "catalog load failed: " + e.Err.Error()
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// EmbeddingError wraps a failure of the embedding engine. During Initialize
// it aborts the attempt; during Route it fails only that call and leaves the
// ready index untouched.
type EmbeddingError struct {
	Text string // the search text or query that failed
	Err  error
}

func (e *EmbeddingError) Error() string {
	return "embedding failed: " + e.Err.Error()
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
