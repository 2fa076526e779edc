// Package cache speaks the content-addressed embedding cache protocol:
// an HTTP client for the router side and a file-backed store with an HTTP
// handler for the serving side. Bundles are keyed by 64-character hex build
// ids; the store is append-only, so nothing here evicts.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agentrelay/relay/internal/bundle"
	"github.com/agentrelay/relay/internal/canonical"
)

// ErrNotFound reports that no usable bundle exists under a build id. A
// fetched bundle that fails validation is demoted to this error: the caller
// recomputes either way, and the cache never becomes a correctness
// dependency.
var ErrNotFound = errors.New("bundle not found")

// Client fetches and stores embedding bundles against an external cache
// store. Neither direction retries; initialize latency stays bounded by one
// round trip each way.
type Client struct {
	baseURL string
	dims    int
	httpc   *http.Client
	log     *slog.Logger
}

// NewClient returns a cache client for the store at baseURL, validating
// fetched bundles against dims.
func NewClient(baseURL string, dims int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		dims:    dims,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     logger,
	}
}

// Get fetches the bundle stored under buildID. It returns ErrNotFound for a
// missing bundle and for a fetched bundle that fails validation; a malformed
// buildID is a caller precondition violation, reported as a distinct error.
func (c *Client) Get(ctx context.Context, buildID string) (*bundle.Bundle, error) {
	if !canonical.IsDigest(buildID) {
		return nil, fmt.Errorf("malformed build id %q", buildID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bundleURL(buildID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cache fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("cache fetch failed: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cache fetch failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var b bundle.Bundle
	if err := json.Unmarshal(body, &b); err != nil {
		c.log.Warn("cached bundle is not valid JSON, treating as miss", "build_id", buildID, "error", err)
		return nil, fmt.Errorf("%w: corrupt bundle", ErrNotFound)
	}
	if err := b.Validate(buildID, c.dims); err != nil {
		c.log.Warn("cached bundle rejected, treating as miss", "build_id", buildID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return &b, nil
}

// Put stores b under buildID. The bundle is validated locally first so an
// incomplete bundle is never sent. Failures are returned for the caller to
// log; storing is best-effort and never required for correctness.
func (c *Client) Put(ctx context.Context, buildID string, b *bundle.Bundle) error {
	if !canonical.IsDigest(buildID) {
		return fmt.Errorf("malformed build id %q", buildID)
	}
	if err := b.Validate(buildID, c.dims); err != nil {
		return fmt.Errorf("refusing to store invalid bundle: %w", err)
	}

	body, err := json.Marshal(b)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.bundleURL(buildID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cache store rejected bundle: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func (c *Client) bundleURL(buildID string) string {
	return c.baseURL + "/embeddings/" + buildID
}
