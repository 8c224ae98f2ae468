package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/quizlive/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.Store, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.SyncInterval, convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.CountdownStep, convey.ShouldEqual, time.Second)
			convey.So(cfg.Host, convey.ShouldBeTrue)
			convey.So(cfg.InitialSet, convey.ShouldEqual, "demo-1")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("QUIZLIVE_ADDR", ":9090")
			_ = os.Setenv("QUIZLIVE_SYNC_INTERVAL", "250ms")
			_ = os.Setenv("QUIZLIVE_QUEUE_CAPACITY", "50")
			_ = os.Setenv("QUIZLIVE_HOST", "false")
			_ = os.Setenv("QUIZLIVE_STORE", "redis")
			_ = os.Setenv("QUIZLIVE_REDIS_ADDR", "cache:6379")
			_ = os.Setenv("QUIZLIVE_METRICS_NAMESPACE", "trivia")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SyncInterval, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.QueueCapacity, convey.ShouldEqual, 50)
				convey.So(cfg.Host, convey.ShouldBeFalse)
				convey.So(cfg.Store, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "trivia")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "session")
			})
		})

		convey.Convey("When a config file sets histogram buckets", func() {
			_ = os.Setenv("QUIZLIVE_CONFIG", createTempConfigFile(t, "metrics_buckets: [1, 10, 100]\nmetrics_subsystem: relay\n"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are loaded in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsBuckets, convey.ShouldResemble, []float64{1, 10, 100})
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "relay")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
# session defaults
addr: ":7070"
initial_set: demo-2
countdown_step: 2s
cors_origins:
  - https://quiz.example.com
token_ttl: 1h
`)
			_ = os.Setenv("QUIZLIVE_CONFIG", tmpFile)
			_ = os.Setenv("QUIZLIVE_ADDR", ":8081")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.InitialSet, convey.ShouldEqual, "demo-2")
				convey.So(cfg.CountdownStep, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://quiz.example.com"})
				convey.So(cfg.TokenTTL, convey.ShouldEqual, time.Hour)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("QUIZLIVE_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("QUIZLIVE_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("QUIZLIVE_QUEUE_CAPACITY", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("QUIZLIVE_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When an env file is named", func() {
			_ = os.Setenv("QUIZLIVE_ENV_FILE", createTempConfigFile(t, "QUIZLIVE_ADDR=:7070\nQUIZLIVE_STORE=memory\n"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then its variables are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the named env file is missing", func() {
			_ = os.Setenv("QUIZLIVE_ENV_FILE", "/non/existent/.env")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given configs with broken settings", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"unknown store", func(c *config.Config) { c.Store = "etcd" }},
			{"postgres without dsn", func(c *config.Config) { c.Store = config.BackendPostgres }},
			{"redis without addr", func(c *config.Config) { c.Store = config.BackendRedis; c.RedisAddr = "" }},
			{"zero sync interval", func(c *config.Config) { c.SyncInterval = 0 }},
			{"zero countdown step", func(c *config.Config) { c.CountdownStep = 0 }},
			{"negative queue capacity", func(c *config.Config) { c.QueueCapacity = -1 }},
			{"zero token ttl", func(c *config.Config) { c.TokenTTL = 0 }},
			{"zero leaderboard limit", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }},
			{"empty metrics namespace", func(c *config.Config) { c.MetricsNamespace = " " }},
			{"unsorted metrics buckets", func(c *config.Config) { c.MetricsBuckets = []float64{10, 5} }},
		}
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then a postgres store with a DSN is accepted", func() {
			cfg := config.New()
			cfg.Store = config.BackendPostgres
			cfg.PostgresDSN = "postgres://quiz@localhost/quiz"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"QUIZLIVE_CONFIG",
		"QUIZLIVE_ENV_FILE",
		"QUIZLIVE_METRICS_NAMESPACE",
		"QUIZLIVE_ADDR",
		"QUIZLIVE_SYNC_INTERVAL",
		"QUIZLIVE_QUEUE_CAPACITY",
		"QUIZLIVE_HOST",
		"QUIZLIVE_STORE",
		"QUIZLIVE_REDIS_ADDR",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "quizlive-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
