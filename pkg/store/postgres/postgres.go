// Package postgres stores records in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/store"
)

// Backend is a PostgreSQL store backend.
type Backend struct {
	pool *pgxpool.Pool
}

// Open connects to the database at dsn, sizing the pool for maxConns
// concurrent users, and ensures the schema.
func Open(ctx context.Context, dsn string, maxConns int32) (*Backend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "invalid connection string", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.WrapResource("open", "postgres", cfg.ConnConfig.Host, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapResource("ping", "postgres", cfg.ConnConfig.Host, err)
	}

	b := &Backend{pool: pool}
	if err := b.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) migrate(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+constants.StorageTable+` (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return errors.WrapResource("migrate", "postgres", constants.StorageTable, err)
}

// Load implements store.Backend.
func (b *Backend) Load(ctx context.Context, key store.Key) ([]byte, error) {
	var value string
	err := b.pool.QueryRow(ctx,
		`SELECT value FROM `+constants.StorageTable+` WHERE key = $1`, key.String(),
	).Scan(&value)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NewNotFoundError("record", key.String())
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Save implements store.Backend.
func (b *Backend) Save(ctx context.Context, key store.Key, value []byte) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO `+constants.StorageTable+` (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key.String(), string(value),
	)
	return err
}

// Ping implements store.Backend.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

var _ store.Backend = (*Backend)(nil)
