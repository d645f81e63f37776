// Package sqlite stores records in a SQLite database file using the pure-Go
// modernc.org/sqlite driver.
//
// SQLite allows a single writer, so the pool is capped at one connection and
// the process must not be scaled to several workers sharing the file.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/store"
)

// Backend is a SQLite store backend.
type Backend struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Backend, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", path, "sqlite path is required")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
				return nil, errors.WrapIO("create", dir, err)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapResource("open", "sqlite", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	b := &Backend{db: db, path: path}
	if err := b.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+constants.StorageTable+` (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	return errors.WrapResource("migrate", "sqlite", b.path, err)
}

// Load implements store.Backend.
func (b *Backend) Load(ctx context.Context, key store.Key) ([]byte, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM `+constants.StorageTable+` WHERE key = ?`, key.String(),
	).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("record", key.String())
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Save implements store.Backend.
func (b *Backend) Save(ctx context.Context, key store.Key, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO `+constants.StorageTable+` (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key.String(), string(value), time.Now().UTC(),
	)
	return err
}

// Ping implements store.Backend.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return b.db.Close()
}

var _ store.Backend = (*Backend)(nil)
