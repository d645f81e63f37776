// Package store holds the current primary dataset and merged snapshot.
//
// Each dataset lives in one durable record that is overwritten in place.
// Writers are serialized and persist before publishing; readers load an
// in-memory pointer and never wait on I/O once the store is warm.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
	"github.com/agentstation/menumerge/pkg/menus"
)

// Key names a durable record.
type Key string

// Record keys.
const (
	KeyPrimary  Key = constants.KeyPrimary
	KeySnapshot Key = constants.KeySnapshot
)

// String returns the key as a string.
func (k Key) String() string {
	return string(k)
}

// Backend is durable key/value storage for the two records.
type Backend interface {
	// Load returns the stored bytes, or an error matching errors.ErrNotFound.
	Load(ctx context.Context, key Key) ([]byte, error)

	// Save atomically replaces the record.
	Save(ctx context.Context, key Key, value []byte) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// slot caches one record. Once loaded is set, value is authoritative
// (nil meaning the record does not exist yet).
type slot[T any] struct {
	value  atomic.Pointer[T]
	loaded atomic.Bool
}

// Store is the synchronized, durable home of the primary dataset and the snapshot.
type Store struct {
	backend Backend
	logger  *zerolog.Logger

	mu    sync.Mutex // serializes writes and cold loads
	group singleflight.Group

	primary  slot[menus.PrimaryDataset]
	snapshot slot[menus.Snapshot]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps backend and tries to warm the cache from it. A backend that is
// unreachable now is retried lazily on the first read.
func New(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.NewValidationError("backend", nil, "cannot be nil")
	}
	s := &Store{backend: backend, logger: logging.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.Primary(ctx); err != nil && !errors.IsNotFound(err) {
		s.logger.Warn().Err(err).Msg("Primary dataset not loaded at startup")
	}
	if _, err := s.Snapshot(ctx); err != nil && !errors.IsNotFound(err) {
		s.logger.Warn().Err(err).Msg("Snapshot not loaded at startup")
	}
	return s, nil
}

// SubmitPrimary durably replaces the primary dataset. The next cycle that
// starts after SubmitPrimary returns observes the new dataset.
func (s *Store) SubmitPrimary(ctx context.Context, dataset *menus.PrimaryDataset) error {
	if dataset == nil {
		return errors.NewValidationError("primary", nil, "cannot be nil")
	}
	return save(ctx, s, KeyPrimary, &s.primary, dataset.Clone())
}

// Primary returns the current primary dataset. The result is shared and must not be modified.
func (s *Store) Primary(ctx context.Context) (*menus.PrimaryDataset, error) {
	return load(ctx, s, KeyPrimary, &s.primary)
}

// ReplaceSnapshot durably replaces the snapshot. Readers see either the old
// or the new snapshot, never a mix.
func (s *Store) ReplaceSnapshot(ctx context.Context, snapshot *menus.Snapshot) error {
	if snapshot == nil {
		return errors.NewValidationError("snapshot", nil, "cannot be nil")
	}
	return save(ctx, s, KeySnapshot, &s.snapshot, snapshot.Clone())
}

// Snapshot returns the current snapshot. The result is shared and must not be modified.
func (s *Store) Snapshot(ctx context.Context) (*menus.Snapshot, error) {
	return load(ctx, s, KeySnapshot, &s.snapshot)
}

// Ping checks that the durable backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return errors.WrapStore("ping", "", s.backend.Ping(ctx))
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func save[T any](ctx context.Context, s *Store, key Key, sl *slot[T], value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WrapParse("json", key.String(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(ctx, key, data); err != nil {
		s.logger.Error().Err(err).Str("key", key.String()).Msg("Durable write failed")
		return errors.WrapStore("save", key.String(), err)
	}
	sl.value.Store(value)
	sl.loaded.Store(true)

	s.logger.Debug().Str("key", key.String()).Int("bytes", len(data)).Msg("Record replaced")
	return nil
}

func load[T any](ctx context.Context, s *Store, key Key, sl *slot[T]) (*T, error) {
	if sl.loaded.Load() {
		return present(key, sl.value.Load())
	}

	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		// A write may have landed while waiting for the lock.
		if sl.loaded.Load() {
			return sl.value.Load(), nil
		}

		data, err := s.backend.Load(ctx, key)
		if err != nil {
			if errors.IsNotFound(err) {
				sl.loaded.Store(true)
				return (*T)(nil), nil
			}
			return nil, errors.WrapStore("load", key.String(), err)
		}

		value := new(T)
		if err := json.Unmarshal(data, value); err != nil {
			return nil, errors.WrapStore("load", key.String(), errors.WrapParse("json", key.String(), err))
		}
		sl.value.Store(value)
		sl.loaded.Store(true)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return present(key, v.(*T))
}

func present[T any](key Key, value *T) (*T, error) {
	if value == nil {
		return nil, errors.NewNotFoundError("record", key.String())
	}
	return value, nil
}
