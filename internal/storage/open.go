package storage

import (
	"errors"
	"strings"

	logx "mastbot/pkg/logx"
)

// ErrNotFound is returned by backends when a record has never been saved.
var ErrNotFound = errors.New("record not found")

// Backend is the raw byte-level persistence API. It knows nothing about
// record schemas; the Service layers defaults and backfill on top.
type Backend interface {
	Load(kind Kind) ([]byte, error)
	Save(kind Kind, data []byte) error
	Close() error
}

// Config configures the storage backend.
//
// Driver values:
//   - "file": one JSON document per record under Dir (default)
//   - "sqlite": a single SQLite database file under Dir
type Config struct {
	Driver string
	Dir    string
}

// Open initializes the configured backend.
func Open(cfg Config, log logx.Logger) (Backend, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg)
	case "sqlite", "sqlite3":
		return openSQLite(cfg)
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
