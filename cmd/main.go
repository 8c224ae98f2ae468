package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/okian/quizlive/internal/adapters/http/api"
	"github.com/okian/quizlive/internal/adapters/http/site"
	"github.com/okian/quizlive/internal/adapters/http/swagger"
	"github.com/okian/quizlive/internal/adapters/library"
	"github.com/okian/quizlive/internal/adapters/mq/queue"
	"github.com/okian/quizlive/internal/adapters/relay"
	"github.com/okian/quizlive/internal/adapters/repository"
	service "github.com/okian/quizlive/internal/app"
	"github.com/okian/quizlive/internal/auth"
	"github.com/okian/quizlive/internal/config"
	"github.com/okian/quizlive/pkg/database"
	"github.com/okian/quizlive/pkg/logger"
	"github.com/okian/quizlive/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	configureMetrics(cfg)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "quizlive stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then shuts everything down.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, intents, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	a, err := build(ctx, cfg, store, intents)
	if err != nil {
		return err
	}
	if a.host != nil {
		if err := a.host.Start(ctx); err != nil {
			return fmt.Errorf("start host: %w", err)
		}
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.Store),
			logger.Bool("host", a.host != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if a.host != nil {
		if err := a.host.Stop(shutdownCtx); err != nil {
			log.Error(ctx, "host shutdown failed", logger.Error(err))
		}
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openBackend connects the configured store and intent queue.
func openBackend(ctx context.Context, cfg *config.Config) (repository.Store, queue.Queue, func(), error) {
	qopts := []queue.Option{queue.WithCapacity(cfg.QueueCapacity)}
	switch cfg.Store {
	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = rdb.Close() }
		return repository.NewRedisStore(rdb), queue.NewRedisQueue(rdb, qopts...), closeFn, nil
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return repository.NewPostgresStore(pool), queue.NewPostgresQueue(pool, qopts...), pool.Close, nil
	default:
		q := queue.NewInMemoryQueue(qopts...)
		return repository.NewMemoryStore(), q, func() { _ = q.Close() }, nil
	}
}

type application struct {
	handler http.Handler
	host    *service.Service
}

// build wires the relay, auth, library, optional host engine and HTTP
// routes over an opened backend. The host is returned unstarted.
func build(ctx context.Context, cfg *config.Config, store repository.Store, intents queue.Queue) (*application, error) {
	log := logger.Get()
	r := relay.NewLocal(store, intents)

	secret := cfg.AuthSecret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		log.Warn(ctx, "auth_secret not set; host tokens will not survive a restart")
	}
	authSvc := auth.NewService(store, secret, auth.WithTTL(cfg.TokenTTL))
	if err := authSvc.Bootstrap(ctx, cfg.AdminPassword, cfg.JoinURL); err != nil {
		return nil, fmt.Errorf("bootstrap settings: %w", err)
	}

	lib, err := library.Builtin()
	if err != nil {
		return nil, fmt.Errorf("builtin library: %w", err)
	}
	if cfg.LibraryDir != "" {
		disk, err := library.FromFS(os.DirFS(cfg.LibraryDir), "*.yaml")
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", cfg.LibraryDir, err)
		}
		lib.Merge(disk)
	}

	opts := []api.Option{
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithMaxBody(cfg.MaxBodyBytes),
		api.WithCORSOrigins(cfg.CORSOrigins...),
	}
	a := &application{}
	if cfg.Host {
		a.host = service.New(r,
			service.WithRole(service.RoleHost),
			service.WithSyncInterval(cfg.SyncInterval),
			service.WithCountdownStep(cfg.CountdownStep),
			service.WithDedupeSize(cfg.DedupeSize),
			service.WithLibrary(lib),
			service.WithInitialSet(cfg.InitialSet),
			service.WithResume(cfg.Resume),
			service.WithLogger(log.Named("host")),
		)
		opts = append(opts, api.WithHost(a.host), api.WithStats(a.host))
	}

	mux := http.NewServeMux()
	apiServer := api.NewServer(r, authSvc, opts...)
	apiServer.Register(mux)
	swagger.Register(mux)
	site.Register(mux)
	a.handler = apiServer.Handler(mux)
	return a, nil
}

// configureMetrics names the package recorders after the configured
// namespace and subsystem.
func configureMetrics(cfg *config.Config) {
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
	)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
