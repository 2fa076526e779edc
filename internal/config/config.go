package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by DefaultConfig and by Load for absent fields.
const (
	DefaultCacheURL   = "http://localhost:3001"
	DefaultListenAddr = ":3001"
	DefaultDims       = 384
	DefaultTopK       = 5
)

// Config is the in-memory representation of ~/.relay/relay.yaml.
type Config struct {
	// CatalogPath points at a local agents.json. Takes precedence over
	// CatalogURL when both are set.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	// CatalogURL is the base URL of a store serving /api/agents.
	CatalogURL string `yaml:"catalog_url,omitempty"`

	// CacheURL is the base URL of the embedding bundle store.
	CacheURL string `yaml:"cache_url"`

	// DataDir holds the serve command's bundle files.
	DataDir string `yaml:"data_dir"`

	// Dims is the embedding width every bundle must match.
	Dims int `yaml:"dims"`

	// TopK is the number of ranked matches reported per routing decision.
	TopK int `yaml:"top_k"`

	// ListenAddr is the bind address for relay serve.
	ListenAddr string `yaml:"listen_addr"`
}

// RelayDir returns the absolute path to ~/.relay/.
func RelayDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".relay"), nil
}

// ConfigPath returns the absolute path to ~/.relay/relay.yaml.
func ConfigPath() (string, error) {
	dir, err := RelayDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "relay.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first relay init.
func DefaultConfig() (*Config, error) {
	dir, err := RelayDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CatalogPath: filepath.Join(dir, "agents.json"),
		CacheURL:    DefaultCacheURL,
		DataDir:     filepath.Join(dir, "data"),
		Dims:        DefaultDims,
		TopK:        DefaultTopK,
		ListenAddr:  DefaultListenAddr,
	}, nil
}

// Load reads and parses ~/.relay/relay.yaml, filling absent fields with
// defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	// Expand ~ in paths at load time.
	if cfg.CatalogPath, err = ExpandPath(cfg.CatalogPath); err != nil {
		return nil, err
	}
	if cfg.DataDir, err = ExpandPath(cfg.DataDir); err != nil {
		return nil, err
	}

	if cfg.CacheURL == "" {
		cfg.CacheURL = DefaultCacheURL
	}
	if cfg.DataDir == "" {
		dir, err := RelayDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = filepath.Join(dir, "data")
	}
	if cfg.Dims <= 0 {
		cfg.Dims = DefaultDims
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.relay/relay.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
