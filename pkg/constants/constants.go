// Package constants provides shared defaults used throughout menumerge:
// timeouts, limits, file permissions and the storage key layout.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout bounds a single HTTP attempt against the secondary source.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for short operations such as pings.
	DefaultTimeout = 10 * time.Second

	// DefaultCycleTimeout bounds a whole reconciliation cycle, retries included.
	DefaultCycleTimeout = 5 * time.Minute

	// DefaultFetchInterval is the default interval between scheduled cycles.
	DefaultFetchInterval = 60 * time.Second

	// DefaultRetryDelay is the fixed wait between fetch attempts.
	DefaultRetryDelay = 5 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the server and scheduler.
	ShutdownTimeout = 30 * time.Second

	// StoreOpenTimeout bounds connecting to a storage backend at startup.
	StoreOpenTimeout = 15 * time.Second
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// DefaultMaxAttempts is the default number of fetch attempts, the first one included.
	DefaultMaxAttempts = 3

	// MaxResponseBytes caps the secondary source payload.
	MaxResponseBytes = 32 << 20

	// MaxRequestBytes caps a primary dataset submission.
	MaxRequestBytes = 10 << 20

	// DefaultWorkers is the default WORKERS_COUNT: goroutines in this process
	// sharing one database pool.
	DefaultWorkers = 1

	// ChannelBufferSize is the default buffer size for event channels.
	ChannelBufferSize = 100
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per minute per client IP.
	DefaultRateLimit = 100
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for encoded snapshot responses.
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to purge expired cache entries.
	CacheCleanupInterval = 10 * time.Minute
)

// Storage layout. Each dataset occupies one record that is overwritten in place.
const (
	// KeyPrimary is the record holding the most recently submitted primary dataset.
	KeyPrimary = "data_a"

	// KeySnapshot is the record holding the current merged snapshot.
	KeySnapshot = "data_c"

	// StorageTable is the relational table holding both records.
	StorageTable = "storage"

	// RedisKeyPrefix namespaces the records in a shared Redis database.
	RedisKeyPrefix = "menumerge:"
)

// Default values
const (
	// DefaultHost is the default listen address.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the default listen port.
	DefaultPort = 8000

	// DefaultDatabaseURL stores everything in a local SQLite file.
	DefaultDatabaseURL = "sqlite://menumerge.db"

	// DefaultSourceName labels the secondary source in logs and errors.
	DefaultSourceName = "data-b"

	// DefaultKafkaTopic receives snapshot events when Kafka brokers are configured.
	DefaultKafkaTopic = "menumerge.events"
)

// Error messages returned by the public API.
const (
	// ErrMsgSnapshotUnavailable is returned while no cycle has succeeded.
	ErrMsgSnapshotUnavailable = "DATA C not available"

	// ErrMsgUnexpected is returned for any server-side failure.
	ErrMsgUnexpected = "Unexpected server error, please contact support."

	// ErrMsgStoreUnavailable is returned when a submission could not be persisted.
	ErrMsgStoreUnavailable = "storage temporarily unavailable, please retry"
)
