package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/menumerge/internal/database"
	"github.com/agentstation/menumerge/internal/transport"
	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/reconciler"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Storage
	DatabaseURL string
	Workers     int

	// Secondary source
	SourceURL    string
	SourceAPIKey string
	SourceAuth   string
	MaxAttempts  int
	RetryDelay   time.Duration
	FetchTimeout time.Duration

	// Scheduling
	FetchInterval time.Duration
	CycleTimeout  time.Duration
	RunOnStart    bool

	MergeStrategy string

	// HTTP server
	Host           string
	Port           int
	CORSOrigins    []string
	RateLimit      int
	MetricsEnabled bool

	// Event streaming
	KafkaBrokers []string
	KafkaTopic   string

	// Logging configuration. LogLevel is the --log-level flag; EnvLogLevel
	// comes from LOG_LEVEL and only applies when no flag asks otherwise.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// Keys as they appear in config files; environment variables are the
// upper-case form (fetch_interval_seconds → FETCH_INTERVAL_SECONDS).
const (
	keyDatabaseURL   = "database_url"
	keyWorkers       = "workers_count"
	keySourceURL     = "data_b_url"
	keySourceAPIKey  = "data_b_api_key"
	keySourceAuth    = "data_b_auth"
	keyMaxRetries    = "max_retries"
	keyRetryDelay    = "retry_delay"
	keyFetchTimeout  = "fetch_timeout_seconds"
	keyFetchInterval = "fetch_interval_seconds"
	keyCycleTimeout  = "cycle_timeout_seconds"
	keyRunOnStart    = "run_on_start"
	keyMergeStrategy = "merge_strategy"
	keyHost          = "app_host"
	keyPort          = "app_port"
	keyCORSOrigins   = "cors_origins"
	keyRateLimit     = "rate_limit"
	keyMetrics       = "metrics_enabled"
	keyKafkaBrokers  = "kafka_brokers"
	keyKafkaTopic    = "kafka_topic"
	keyLogLevel      = "log_level"
	keyLogFormat     = "log_format"
	keyLogOutput     = "log_output"
)

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by the commands)
// 2. Environment variables
// 3. .env.local, then .env
// 4. Config file (configFile, or ~/.menumerge.yaml / ./.menumerge.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".menumerge")
		// A missing default config file is fine.
		_ = v.ReadInConfig()
	}

	return &Config{
		ConfigFile: v.ConfigFileUsed(),

		DatabaseURL: v.GetString(keyDatabaseURL),
		Workers:     v.GetInt(keyWorkers),

		SourceURL:    v.GetString(keySourceURL),
		SourceAPIKey: v.GetString(keySourceAPIKey),
		SourceAuth:   v.GetString(keySourceAuth),
		MaxAttempts:  v.GetInt(keyMaxRetries),
		RetryDelay:   seconds(v.GetFloat64(keyRetryDelay)),
		FetchTimeout: seconds(v.GetFloat64(keyFetchTimeout)),

		FetchInterval: seconds(v.GetFloat64(keyFetchInterval)),
		CycleTimeout:  seconds(v.GetFloat64(keyCycleTimeout)),
		RunOnStart:    v.GetBool(keyRunOnStart),

		MergeStrategy: v.GetString(keyMergeStrategy),

		Host:           v.GetString(keyHost),
		Port:           v.GetInt(keyPort),
		CORSOrigins:    splitList(v.GetStringSlice(keyCORSOrigins)),
		RateLimit:      v.GetInt(keyRateLimit),
		MetricsEnabled: v.GetBool(keyMetrics),

		KafkaBrokers: splitList(v.GetStringSlice(keyKafkaBrokers)),
		KafkaTopic:   v.GetString(keyKafkaTopic),

		EnvLogLevel: v.GetString(keyLogLevel),
		LogFormat:   v.GetString(keyLogFormat),
		LogOutput:   v.GetString(keyLogOutput),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyDatabaseURL, constants.DefaultDatabaseURL)
	v.SetDefault(keyWorkers, constants.DefaultWorkers)
	v.SetDefault(keySourceAuth, "bearer")
	v.SetDefault(keyMaxRetries, constants.DefaultMaxAttempts)
	v.SetDefault(keyRetryDelay, constants.DefaultRetryDelay.Seconds())
	v.SetDefault(keyFetchTimeout, constants.DefaultHTTPTimeout.Seconds())
	v.SetDefault(keyFetchInterval, constants.DefaultFetchInterval.Seconds())
	v.SetDefault(keyCycleTimeout, constants.DefaultCycleTimeout.Seconds())
	v.SetDefault(keyRunOnStart, true)
	v.SetDefault(keyMergeStrategy, string(reconciler.StrategyTypePrimaryAuthority))
	v.SetDefault(keyHost, constants.DefaultHost)
	v.SetDefault(keyPort, constants.DefaultPort)
	v.SetDefault(keyRateLimit, constants.DefaultRateLimit)
	v.SetDefault(keyMetrics, true)
	v.SetDefault(keyKafkaTopic, constants.DefaultKafkaTopic)
	v.SetDefault(keyLogFormat, "auto")
	v.SetDefault(keyLogOutput, "stderr")
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return errors.NewConfigError("config", "WORKERS_COUNT must be at least 1", nil)
	case c.MaxAttempts < 1:
		return errors.NewConfigError("config", "MAX_RETRIES must be at least 1", nil)
	case c.RetryDelay < 0:
		return errors.NewConfigError("config", "RETRY_DELAY must not be negative", nil)
	case c.FetchTimeout <= 0:
		return errors.NewConfigError("config", "FETCH_TIMEOUT_SECONDS must be positive", nil)
	case c.FetchInterval <= 0:
		return errors.NewConfigError("config", "FETCH_INTERVAL_SECONDS must be positive", nil)
	case c.CycleTimeout <= 0:
		return errors.NewConfigError("config", "CYCLE_TIMEOUT_SECONDS must be positive", nil)
	case c.Port < 1 || c.Port > 65535:
		return errors.NewConfigError("config", "APP_PORT must be between 1 and 65535", nil)
	case c.RateLimit < 0:
		return errors.NewConfigError("config", "RATE_LIMIT must not be negative", nil)
	}

	target, err := database.Parse(c.DatabaseURL)
	if err != nil {
		return err
	}
	if target.Kind == database.KindSQLite && c.Workers > 1 {
		return errors.NewConfigError("config", "sqlite uses a single writer connection; set WORKERS_COUNT=1 or use postgres", nil)
	}
	if _, err := reconciler.ParseStrategy(c.MergeStrategy); err != nil {
		return errors.NewConfigError("config", "invalid MERGE_STRATEGY", err)
	}
	if _, err := transport.ParseAuth(c.SourceAuth); err != nil {
		return errors.NewConfigError("config", "invalid DATA_B_AUTH", err)
	}
	return nil
}

// RequireSource checks that the secondary source is configured.
func (c *Config) RequireSource() error {
	if c.SourceURL == "" {
		return errors.NewConfigError("config", "DATA_B_URL is required", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed global flags. Flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env.local and .env. Variables already set in the
// environment win, and .env.local wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// splitList flattens comma-separated entries, dropping blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
