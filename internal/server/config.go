package server

import (
	"time"

	"github.com/agentstation/menumerge/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// Operational endpoints live under PathPrefix; the dataset routes
	// (/data-a, /data-c) are always served at the root.
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Performance settings
	RateLimit int // Requests per minute per IP (0 to disable)
	CacheTTL  time.Duration

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RetryAfter is advertised when a submission is rejected because the
	// store is unavailable.
	RetryAfter time.Duration

	// Features
	MetricsEnabled bool

	// Event streaming. Kafka publishing is enabled when brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           constants.DefaultHost,
		Port:           constants.DefaultPort,
		PathPrefix:     "/api/v1",
		CORSEnabled:    false,
		CORSOrigins:    []string{},
		RateLimit:      constants.DefaultRateLimit,
		CacheTTL:       constants.CacheTTL,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    120 * time.Second,
		RetryAfter:     5 * time.Second,
		MetricsEnabled: true,
		KafkaTopic:     constants.DefaultKafkaTopic,
	}
}
