package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source loads the full agent catalog. Loads happen once per router
// initialize; implementations do not cache.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// FileSource reads the catalog from a JSON file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) (*Catalog, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog %s: %w", s.Path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", s.Path, err)
	}
	return c, nil
}

// HTTPSource fetches the catalog from GET {BaseURL}/api/agents.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSource) Load(ctx context.Context) (*Catalog, error) {
	httpc := s.Client
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	url := strings.TrimRight(s.BaseURL, "/") + "/api/agents"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	c, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog from %s: %w", url, err)
	}
	return c, nil
}
