package embeddings

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
)

// fakeProvider records every input it was asked to embed and returns a fixed
// vector.
type fakeProvider struct {
	inputs []string
	out    []float32
	err    error
}

func (f *fakeProvider) ModelID() string { return "fake:test" }

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestEngine_DocumentRolePrefix(t *testing.T) {
	p := &fakeProvider{out: []float32{3, 4}}
	e := NewEngine(p, 2)

	if _, err := e.EmbedDocument(context.Background(), "search products"); err != nil {
		t.Fatalf("EmbedDocument: %v", err)
	}
	if len(p.inputs) != 1 || p.inputs[0] != "passage: search products" {
		t.Fatalf("document role prefix not applied: %q", p.inputs)
	}
}

func TestEngine_QueryRolePrefix(t *testing.T) {
	p := &fakeProvider{out: []float32{3, 4}}
	e := NewEngine(p, 2)

	if _, err := e.EmbedQuery(context.Background(), "find laptops"); err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(p.inputs) != 1 || p.inputs[0] != "query: find laptops" {
		t.Fatalf("query role prefix not applied: %q", p.inputs)
	}
}

func TestEngine_CustomPrefixes(t *testing.T) {
	p := &fakeProvider{out: []float32{1, 0}}
	e := NewEngineWithPrefixes(p, 2, "doc| ", "q| ")

	_, _ = e.EmbedDocument(context.Background(), "a")
	_, _ = e.EmbedQuery(context.Background(), "b")
	if p.inputs[0] != "doc| a" || p.inputs[1] != "q| b" {
		t.Fatalf("custom prefixes not applied: %q", p.inputs)
	}
}

func TestEngine_UnitNormOutput(t *testing.T) {
	p := &fakeProvider{out: []float32{3, 4}}
	e := NewEngine(p, 2)

	v, err := e.EmbedQuery(context.Background(), "x")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-6 {
		t.Fatalf("output not unit length: %v", v)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", v)
	}
}

func TestEngine_WidthMismatch(t *testing.T) {
	p := &fakeProvider{out: []float32{1, 2, 3}}
	e := NewEngine(p, 384)

	if _, err := e.EmbedQuery(context.Background(), "x"); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestEngine_ProviderErrorPropagates(t *testing.T) {
	p := &fakeProvider{err: fmt.Errorf("upstream down")}
	e := NewEngine(p, 2)

	if _, err := e.EmbedDocument(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestEngine_NFCNormalization(t *testing.T) {
	p := &fakeProvider{out: []float32{1, 0}}
	e := NewEngine(p, 2)

	// 'e' + combining acute accent; NFC folds it to a single rune.
	if _, err := e.EmbedQuery(context.Background(), "cafe\u0301"); err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if p.inputs[0] != "query: caf\u00e9" {
		t.Fatalf("text not NFC-normalized: %q", p.inputs[0])
	}
}

func TestNormalizeL2_ZeroVector(t *testing.T) {
	v := NormalizeL2([]float32{0, 0, 0})
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector changed: %v", v)
		}
	}
}
