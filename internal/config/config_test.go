package config

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	oldHome := os.Getenv("HOME")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Cleanup(func() { _ = os.Setenv("HOME", oldHome) })
	return home
}

func TestDefaultConfig(t *testing.T) {
	home := withTempHome(t)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	if cfg.CatalogPath != filepath.Join(home, ".relay", "agents.json") {
		t.Fatalf("unexpected catalog path: %s", cfg.CatalogPath)
	}
	if cfg.DataDir != filepath.Join(home, ".relay", "data") {
		t.Fatalf("unexpected data dir: %s", cfg.DataDir)
	}
	if cfg.CacheURL != DefaultCacheURL || cfg.Dims != DefaultDims || cfg.TopK != DefaultTopK {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	home := withTempHome(t)
	if err := os.MkdirAll(filepath.Join(home, ".relay"), 0o755); err != nil {
		t.Fatal(err)
	}

	want := &Config{
		CatalogPath: filepath.Join(home, "agents.json"),
		CacheURL:    "http://cache.internal:9000",
		DataDir:     filepath.Join(home, "bundles"),
		Dims:        768,
		TopK:        3,
		ListenAddr:  ":8080",
	}
	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip changed config:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	home := withTempHome(t)
	dir := filepath.Join(home, ".relay")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "catalog_path: ~/agents.json\n"
	if err := os.WriteFile(filepath.Join(dir, "relay.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CatalogPath != filepath.Join(home, "agents.json") {
		t.Fatalf("~ not expanded: %s", cfg.CatalogPath)
	}
	if cfg.CacheURL != DefaultCacheURL {
		t.Fatalf("cache url default missing: %s", cfg.CacheURL)
	}
	if cfg.Dims != DefaultDims || cfg.TopK != DefaultTopK || cfg.ListenAddr != DefaultListenAddr {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("data dir default missing: %s", cfg.DataDir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	withTempHome(t)
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config")
	}
}
