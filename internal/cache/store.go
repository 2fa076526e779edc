package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/agentrelay/relay/internal/canonical"
)

// FileStore persists raw bundle JSON under {dir}/{build_id}.json. Writes go
// through a temp file and rename, so a torn-down process can never leave a
// partial bundle observable under its build id.
type FileStore struct {
	dir string
}

// NewFileStore opens (creating if needed) a bundle store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create bundle store %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Get returns the raw bundle JSON stored under buildID, or ErrNotFound.
func (s *FileStore) Get(buildID string) ([]byte, error) {
	if !canonical.IsDigest(buildID) {
		return nil, fmt.Errorf("malformed build id %q", buildID)
	}
	b, err := os.ReadFile(s.bundlePath(buildID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cannot read bundle %s: %w", buildID, err)
	}
	return b, nil
}

// Put stores raw bundle JSON under buildID, replacing any previous content
// atomically. Concurrent writers of the same build id serialize on a lock
// file; content-addressing makes their payloads identical anyway.
func (s *FileStore) Put(buildID string, data []byte) error {
	if !canonical.IsDigest(buildID) {
		return fmt.Errorf("malformed build id %q", buildID)
	}

	lock := flock.New(s.bundlePath(buildID) + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("cannot lock bundle %s: %w", buildID, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(s.dir, buildID+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp bundle: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot write bundle %s: %w", buildID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot write bundle %s: %w", buildID, err)
	}
	if err := os.Rename(tmpName, s.bundlePath(buildID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot commit bundle %s: %w", buildID, err)
	}
	return nil
}

func (s *FileStore) bundlePath(buildID string) string {
	return filepath.Join(s.dir, buildID+".json")
}
