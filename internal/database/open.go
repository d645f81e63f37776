// Package database opens the durable store backend named by a connection URL.
package database

import (
	"context"
	"net/url"
	"strings"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/store"
	"github.com/agentstation/menumerge/pkg/store/memory"
	"github.com/agentstation/menumerge/pkg/store/postgres"
	"github.com/agentstation/menumerge/pkg/store/redis"
	"github.com/agentstation/menumerge/pkg/store/sqlite"
)

// Kind identifies a backend family.
type Kind string

// Supported backends.
const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
	KindMemory   Kind = "memory"
)

// Config selects and sizes a backend.
type Config struct {
	// URL is the connection string, e.g. sqlite://menumerge.db or postgres://...
	URL string
	// Workers is the number of goroutines in this process expected to use the
	// backend at once (WORKERS_COUNT). It sizes the postgres and redis pools.
	// The store caches records per process, so a single process owns the data.
	Workers int
}

// connsPerWorker is the pool headroom granted to each worker.
const connsPerWorker = 4

// PoolSize returns the connection pool size for the given worker count.
func PoolSize(workers int) int {
	return max(workers, 1) * connsPerWorker
}

// Target is a parsed connection URL.
type Target struct {
	Kind Kind
	// DSN is what the backend driver is opened with.
	DSN string
}

// Parse resolves the backend kind for rawURL. Driver suffixes such as
// "+aiosqlite" or "+asyncpg" are accepted and ignored. A string without a
// scheme is treated as a SQLite file path.
func Parse(rawURL string) (Target, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		rawURL = constants.DefaultDatabaseURL
	}

	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		if rawURL == "memory" || rawURL == "memory:" {
			return Target{Kind: KindMemory}, nil
		}
		return Target{Kind: KindSQLite, DSN: rawURL}, nil
	}

	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")
	switch base {
	case "sqlite", "sqlite3", "file":
		// sqlite:///rel.db is relative, sqlite:////abs.db is absolute.
		path := strings.TrimPrefix(rest, "/")
		if path == "" {
			return Target{}, errors.NewConfigError("database", "sqlite URL has no path", nil)
		}
		return Target{Kind: KindSQLite, DSN: path}, nil
	case "postgres", "postgresql":
		u, err := url.Parse(rawURL)
		if err != nil {
			return Target{}, errors.NewConfigError("database", "invalid postgres URL", err)
		}
		u.Scheme = "postgres"
		return Target{Kind: KindPostgres, DSN: u.String()}, nil
	case "redis", "rediss":
		return Target{Kind: KindRedis, DSN: base + "://" + rest}, nil
	case "memory":
		return Target{Kind: KindMemory}, nil
	default:
		return Target{}, errors.NewConfigError("database", "unsupported scheme "+scheme, nil)
	}
}

// Open parses cfg.URL and opens the matching backend.
func Open(ctx context.Context, cfg Config) (store.Backend, error) {
	target, err := Parse(cfg.URL)
	if err != nil {
		return nil, err
	}

	if target.Kind == KindSQLite && cfg.Workers > 1 {
		return nil, errors.NewConfigError("database",
			"sqlite uses a single writer connection; set WORKERS_COUNT=1 or use postgres", nil)
	}

	conns := PoolSize(cfg.Workers)
	var backend store.Backend
	switch target.Kind {
	case KindSQLite:
		var b *sqlite.Backend
		if b, err = sqlite.Open(ctx, target.DSN); err == nil {
			backend = b
		}
	case KindPostgres:
		var b *postgres.Backend
		if b, err = postgres.Open(ctx, target.DSN, int32(conns)); err == nil {
			backend = b
		}
	case KindRedis:
		var b *redis.Backend
		if b, err = redis.Open(ctx, target.DSN, conns); err == nil {
			backend = b
		}
	default:
		backend = memory.New()
	}
	if err != nil {
		return nil, err
	}
	return backend, nil
}
