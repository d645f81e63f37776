package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
)

// isolate runs the test in an empty directory with HOME pointing at it, so no
// stray .env or .menumerge.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, constants.DefaultFetchInterval, cfg.FetchInterval)
	assert.Equal(t, constants.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, constants.DefaultRetryDelay, cfg.RetryDelay)
	assert.Equal(t, constants.DefaultPort, cfg.Port)
	assert.Equal(t, "primary-authority", cfg.MergeStrategy)
	assert.True(t, cfg.RunOnStart)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "memory")
	t.Setenv("DATA_B_URL", "https://upstream.example.com/menus")
	t.Setenv("FETCH_INTERVAL_SECONDS", "30")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY", "0.5")
	t.Setenv("APP_PORT", "9001")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MERGE_STRATEGY", "secondary-authority")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DatabaseURL)
	assert.Equal(t, "https://upstream.example.com/menus", cfg.SourceURL)
	assert.Equal(t, 30*time.Second, cfg.FetchInterval)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "secondary-authority", cfg.MergeStrategy)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvFiles(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_PORT=7000\nWORKERS_COUNT=1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("APP_PORT=7100\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("APP_PORT")
		os.Unsetenv("WORKERS_COUNT")
	})

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "menumerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_b_url: http://localhost:9999/data-b\nfetch_interval_seconds: 5\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/data-b", cfg.SourceURL)
	assert.Equal(t, 5*time.Second, cfg.FetchInterval)
	assert.Equal(t, path, cfg.ConfigFile)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestConfigValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }},
		{"zero interval", func(c *Config) { c.FetchInterval = 0 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"sqlite with workers", func(c *Config) { c.Workers = 4 }},
		{"unknown strategy", func(c *Config) { c.MergeStrategy = "newest-wins" }},
		{"unknown auth", func(c *Config) { c.SourceAuth = "kerberos" }},
		{"bad database url", func(c *Config) { c.DatabaseURL = "mysql://db/menus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequireSource(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireSource())
	cfg.SourceURL = "http://x"
	assert.NoError(t, cfg.RequireSource())
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{"default", &Config{}, "info"},
		{"verbose", &Config{Verbose: true}, "debug"},
		{"quiet", &Config{Quiet: true}, "warn"},
		{"both", &Config{Verbose: true, Quiet: true}, "warn"},
		{"env", &Config{EnvLogLevel: "error"}, "error"},
		{"flag beats verbose", &Config{LogLevel: "error", Verbose: true}, "error"},
		{"verbose beats env", &Config{Verbose: true, EnvLogLevel: "error"}, "debug"},
		{"invalid flag", &Config{LogLevel: "loud"}, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineLogLevel(tt.config))
		})
	}
}
