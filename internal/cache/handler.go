package cache

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentrelay/relay/internal/bundle"
)

// maxBundleBytes bounds PUT bodies; large catalogs stay far below this.
const maxBundleBytes = 64 << 20

// HandlerConfig configures the cache store HTTP surface.
type HandlerConfig struct {
	Store *FileStore

	// ExpectedDims is the embedding width this store accepts. A PUT whose
	// declared dims differ is rejected; this and the build id key check are
	// the only validations the store enforces.
	ExpectedDims int

	// AgentsPath, when set, is an agents.json served at /api/agents.
	AgentsPath string

	Logger *slog.Logger
}

// NewHandler returns the cache store routes: GET/PUT /embeddings/{build_id},
// GET /api/agents, GET /api/health.
func NewHandler(cfg HandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &storeHandler{store: cfg.Store, dims: cfg.ExpectedDims, agentsPath: cfg.AgentsPath, log: logger}

	r := chi.NewRouter()
	r.Get("/embeddings/{buildID:[a-f0-9]{64}}", h.getBundle)
	r.Put("/embeddings/{buildID:[a-f0-9]{64}}", h.putBundle)
	r.Get("/api/agents", h.getAgents)
	r.Get("/api/health", h.getHealth)
	return r
}

type storeHandler struct {
	store      *FileStore
	dims       int
	agentsPath string
	log        *slog.Logger
}

func (h *storeHandler) getBundle(w http.ResponseWriter, r *http.Request) {
	buildID := chi.URLParam(r, "buildID")

	data, err := h.store.Get(buildID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "bundle not found")
			return
		}
		h.log.Error("bundle read failed", "build_id", buildID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "cannot read bundle")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (h *storeHandler) putBundle(w http.ResponseWriter, r *http.Request) {
	buildID := chi.URLParam(r, "buildID")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBundleBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	var b bundle.Bundle
	if err := json.Unmarshal(body, &b); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid bundle JSON")
		return
	}
	if b.BuildID != buildID {
		writeJSONError(w, http.StatusBadRequest, "invalid bundle or build_id mismatch")
		return
	}
	if b.Dims != h.dims {
		writeJSONError(w, http.StatusBadRequest, "invalid dims, expected "+strconv.Itoa(h.dims))
		return
	}

	if err := h.store.Put(buildID, body); err != nil {
		h.log.Error("bundle write failed", "build_id", buildID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "cannot store bundle")
		return
	}
	h.log.Info("bundle stored", "build_id", buildID, "chunks", len(b.Chunks))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "build_id": buildID})
}

func (h *storeHandler) getAgents(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.agentsPath != "" {
		data, err := os.ReadFile(h.agentsPath)
		if err == nil {
			_, _ = w.Write(data)
			return
		}
		h.log.Warn("cannot read agents catalog", "path", h.agentsPath, "error", err)
	}
	_, _ = w.Write([]byte(`{"agents":[]}`))
}

func (h *storeHandler) getHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"service":   "relay cache store",
		"dims":      h.dims,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
