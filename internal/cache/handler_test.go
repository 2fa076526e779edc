package cache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentrelay/relay/internal/bundle"
)

func newTestServer(t *testing.T, dims int, agentsPath string) *httptest.Server {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewHandler(HandlerConfig{Store: store, ExpectedDims: dims, AgentsPath: agentsPath}))
	t.Cleanup(srv.Close)
	return srv
}

func putBundle(t *testing.T, srv *httptest.Server, id string, b *bundle.Bundle) *http.Response {
	t.Helper()
	body, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/embeddings/"+id, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandler_PutThenGetRoundTrip(t *testing.T) {
	srv := newTestServer(t, 4, "")
	id := strings.Repeat("a", 64)
	stored := clientBundle(id, 4)

	resp := putBundle(t, srv, id, stored)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	getResp, err := srv.Client().Get(srv.URL + "/embeddings/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", getResp.StatusCode)
	}
	var got bundle.Bundle
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.BuildID != id || got.Dims != 4 || len(got.Chunks) != 1 {
		t.Fatalf("round trip changed bundle: %+v", got)
	}
}

func TestHandler_GetMissing(t *testing.T) {
	srv := newTestServer(t, 4, "")

	resp, err := srv.Client().Get(srv.URL + "/embeddings/" + strings.Repeat("b", 64))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandler_GetMalformedIDNotRouted(t *testing.T) {
	srv := newTestServer(t, 4, "")

	resp, err := srv.Client().Get(srv.URL + "/embeddings/SHORT")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", resp.StatusCode)
	}
}

func TestHandler_PutBuildIDMismatchRejected(t *testing.T) {
	srv := newTestServer(t, 4, "")
	key := strings.Repeat("a", 64)
	b := clientBundle(strings.Repeat("b", 64), 4) // declares a different build id

	resp := putBundle(t, srv, key, b)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandler_PutDimsMismatchRejected(t *testing.T) {
	srv := newTestServer(t, 384, "")
	id := strings.Repeat("a", 64)

	resp := putBundle(t, srv, id, clientBundle(id, 256))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Rejected bundles must not be silently accepted.
	getResp, err := srv.Client().Get(srv.URL + "/embeddings/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("rejected bundle was stored anyway: GET = %d", getResp.StatusCode)
	}
}

func TestHandler_Agents(t *testing.T) {
	dir := t.TempDir()
	agentsPath := filepath.Join(dir, "agents.json")
	catalogJSON := `{"agents":[{"name":"search","description":"d","skills":[]}]}`
	if err := os.WriteFile(agentsPath, []byte(catalogJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, 4, agentsPath)

	resp, err := srv.Client().Get(srv.URL + "/api/agents")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var parsed struct {
		Agents []struct {
			Name string `json:"name"`
		} `json:"agents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed.Agents) != 1 || parsed.Agents[0].Name != "search" {
		t.Fatalf("unexpected agents response: %+v", parsed)
	}
}

func TestHandler_AgentsEmptyWhenUnconfigured(t *testing.T) {
	srv := newTestServer(t, 4, "")

	resp, err := srv.Client().Get(srv.URL + "/api/agents")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var parsed map[string][]any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed["agents"]) != 0 {
		t.Fatalf("expected empty agents list, got %+v", parsed)
	}
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t, 384, "")

	resp, err := srv.Client().Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var parsed map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatal(err)
	}
	if parsed["status"] != "ok" {
		t.Fatalf("unexpected health response: %+v", parsed)
	}
}
