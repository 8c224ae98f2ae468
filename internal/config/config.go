// Package config defines the process configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store picks where the snapshot, settings and intents live.
	Store string `koanf:"store"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	PostgresDSN      string `koanf:"postgres_dsn"`
	PostgresMaxConns int32  `koanf:"postgres_max_conns"`

	// QueueCapacity bounds pending intents; 0 means unbounded.
	QueueCapacity int `koanf:"queue_capacity"`

	// AuthSecret signs host tokens. An empty secret gets a random one at
	// startup, which invalidates tokens on restart.
	AuthSecret string        `koanf:"auth_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`

	// AdminPassword seeds the host password on first start only.
	AdminPassword string `koanf:"admin_password"`

	// JoinURL seeds the public join link on first start only.
	JoinURL string `koanf:"join_url"`

	// Host runs the host sync engine in this process.
	Host bool `koanf:"host"`

	// Resume makes the host continue the last published session.
	Resume bool `koanf:"resume"`

	// InitialSet is the question set a fresh host session loads.
	InitialSet string `koanf:"initial_set"`

	// LibraryDir adds YAML question sets from disk to the built-in ones.
	LibraryDir string `koanf:"library_dir"`

	SyncInterval  time.Duration `koanf:"sync_interval"`
	CountdownStep time.Duration `koanf:"countdown_step"`
	DedupeSize    int           `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxBodyBytes caps request bodies on the relay.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	CORSOrigins []string `koanf:"cors_origins"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Metric names are <namespace>_<subsystem>_<name>.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsBuckets overrides the latency histogram buckets (milliseconds).
	MetricsBuckets []float64 `koanf:"metrics_buckets"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8080",
		Store:               BackendMemory,
		RedisAddr:           "localhost:6379",
		PostgresMaxConns:    10,
		QueueCapacity:       10_000,
		TokenTTL:            12 * time.Hour,
		AdminPassword:       "admin",
		Host:                true,
		InitialSet:          "demo-1",
		SyncInterval:        500 * time.Millisecond,
		CountdownStep:       time.Second,
		DedupeSize:          10_000,
		MaxLeaderboardLimit: 100,
		MaxBodyBytes:        4 << 20,
		CORSOrigins:         []string{"*"},
		ShutdownTimeout:     10 * time.Second,
		MetricsNamespace:    "quizlive",
		MetricsSubsystem:    "session",
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SyncInterval <= 0:
		return fmt.Errorf("%w: sync_interval must be positive", ErrInvalidConfig)
	case c.CountdownStep <= 0:
		return fmt.Errorf("%w: countdown_step must be positive", ErrInvalidConfig)
	case c.TokenTTL <= 0:
		return fmt.Errorf("%w: token_ttl must be positive", ErrInvalidConfig)
	case c.QueueCapacity < 0:
		return fmt.Errorf("%w: queue_capacity must not be negative", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("%w: metrics_buckets must be increasing", ErrInvalidConfig)
		}
	}
	switch c.Store {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis store needs redis_addr", ErrInvalidConfig)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres store needs postgres_dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return nil
}
