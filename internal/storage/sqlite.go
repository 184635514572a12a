package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "mastbot.db"

// sqliteBackend keeps all records in a single table keyed by kind. The
// same full-record-overwrite semantics as the file backend apply.
type sqliteBackend struct {
	db *sql.DB
}

func openSQLite(cfg Config) (Backend, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS records (
		kind TEXT PRIMARY KEY,
		data TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Load(kind Kind) ([]byte, error) {
	var data []byte
	err := b.db.QueryRow(`SELECT data FROM records WHERE kind = ?`, string(kind)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *sqliteBackend) Save(kind Kind, data []byte) error {
	_, err := b.db.Exec(`INSERT INTO records (kind, data) VALUES (?, ?)
		ON CONFLICT(kind) DO UPDATE SET data = excluded.data`, string(kind), data)
	return err
}

func (b *sqliteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
