package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fileBackend stores each record as one JSON document (users.json,
// stats.json, settings.json). Every save is a full-record overwrite through
// a temp file + rename so a crash mid-write never corrupts the previous
// document.
type fileBackend struct {
	mu  sync.Mutex
	dir string
}

func openFile(cfg Config) (Backend, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileBackend{dir: dir}, nil
}

func (b *fileBackend) path(kind Kind) string {
	return filepath.Join(b.dir, string(kind)+".json")
}

func (b *fileBackend) Load(kind Kind) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := os.ReadFile(b.path(kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *fileBackend) Save(kind Kind, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := b.path(kind)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (b *fileBackend) Close() error { return nil }
