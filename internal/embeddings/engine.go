package embeddings

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"
)

// Role prefixes for asymmetric embedding models trained with instruction
// prefixes. Catalog entries are embedded as passages, incoming queries as
// queries; mixing the two silently degrades match quality, so the Engine is
// the only embedding entry point and every call carries a role.
const (
	DefaultDocumentPrefix = "passage: "
	DefaultQueryPrefix    = "query: "
)

// Engine wraps a Provider with the invariants the router relies on: role
// prefixing, a fixed vector width, and unit-length output.
type Engine struct {
	provider    Provider
	dims        int
	docPrefix   string
	queryPrefix string
}

// NewEngine returns an Engine enforcing dims-wide vectors with the default
// role prefixes.
func NewEngine(p Provider, dims int) *Engine {
	return &Engine{
		provider:    p,
		dims:        dims,
		docPrefix:   DefaultDocumentPrefix,
		queryPrefix: DefaultQueryPrefix,
	}
}

// NewEngineWithPrefixes returns an Engine with model-specific role prefixes.
// Empty prefixes are allowed for symmetric models.
func NewEngineWithPrefixes(p Provider, dims int, docPrefix, queryPrefix string) *Engine {
	return &Engine{
		provider:    p,
		dims:        dims,
		docPrefix:   docPrefix,
		queryPrefix: queryPrefix,
	}
}

func (e *Engine) ModelID() string {
	return e.provider.ModelID()
}

func (e *Engine) Dims() int {
	return e.dims
}

// EmbedDocument embeds a catalog entry's search text in the document role.
func (e *Engine) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.docPrefix, text)
}

// EmbedQuery embeds an incoming user query in the query role.
func (e *Engine) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.queryPrefix, text)
}

func (e *Engine) embed(ctx context.Context, prefix, text string) ([]float32, error) {
	v, err := e.provider.Embed(ctx, prefix+norm.NFC.String(text))
	if err != nil {
		return nil, err
	}
	if len(v) != e.dims {
		return nil, fmt.Errorf("embedding width mismatch: got %d, want %d", len(v), e.dims)
	}
	return NormalizeL2(v), nil
}

// NormalizeL2 returns a new vector normalized to unit L2 norm.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	n := math.Sqrt(sum)
	out := make([]float32, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	inv := float32(1.0 / n)
	for i := range v {
		out[i] = v[i] * inv
	}
	return out
}
