package participant

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/quizlive/internal/adapters/http/relayclient"
	"github.com/okian/quizlive/internal/adapters/relay"
	service "github.com/okian/quizlive/internal/app"
	"github.com/okian/quizlive/internal/domain/standings"
	"github.com/okian/quizlive/pkg/logger"
)

const stopTimeout = 5 * time.Second

// Option applies a configuration option to the Crowd.
type Option func(*Crowd)

// WithDialer replaces how each simulated device reaches the relay.
func WithDialer(dial func() relay.Relay) Option {
	return func(c *Crowd) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Crowd) {
		if l != nil {
			c.log = l
		}
	}
}

// Crowd joins a set of simulated players to a live session and buzzes on
// their behalf. Every player runs its own client-role sync engine, so the
// relay sees exactly what real devices would send.
type Crowd struct {
	cfg   Config
	dial  func() relay.Relay
	log   logger.Logger
	stats Stats
	bots  []*bot
}

// NewCrowd creates a crowd from cfg. Zero fields take the package defaults.
func NewCrowd(cfg Config, opts ...Option) *Crowd {
	applyDefaults(&cfg)
	c := &Crowd{cfg: cfg}
	c.dial = func() relay.Relay {
		return relayclient.New(c.cfg.BaseURL+"/api", relayclient.WithTimeout(c.cfg.Timeout))
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("crowd")
	}
	return c
}

func applyDefaults(cfg *Config) {
	if cfg.Players <= 0 {
		cfg.Players = DefaultPlayers
	}
	if cfg.BuzzChance <= 0 {
		cfg.BuzzChance = DefaultBuzzChance
	}
	if cfg.MaxReaction <= 0 {
		cfg.MaxReaction = DefaultMaxReaction
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
}

// Run joins every player, plays until ctx ends or Duration passes, then
// logs the standings the crowd last saw.
func (c *Crowd) Run(ctx context.Context) (Stats, error) {
	c.stats = Stats{StartTime: time.Now()}
	c.log.Info(ctx, "starting crowd",
		logger.String("baseURL", c.cfg.BaseURL),
		logger.Int("players", c.cfg.Players),
		logger.Int("teams", c.cfg.Teams),
		logger.Duration("duration", c.cfg.Duration),
	)

	if err := c.checkRelay(ctx); err != nil {
		return c.stats, err
	}
	if c.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Duration)
		defer cancel()
	}
	defer c.stop()

	if err := c.join(ctx); err != nil {
		return c.stats, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range c.bots {
		g.Go(func() error { return b.run(gctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return c.stats, err
	}

	c.report(context.WithoutCancel(ctx))
	c.stats.EndTime = time.Now()
	c.stats.Duration = c.stats.EndTime.Sub(c.stats.StartTime)
	c.displayFinalStats()
	return c.stats, nil
}

// checkRelay verifies the relay answers before anyone joins.
func (c *Crowd) checkRelay(ctx context.Context) error {
	if _, err := c.dial().GetState(ctx); err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	return nil
}

func (c *Crowd) join(ctx context.Context) error {
	for i := 0; i < c.cfg.Players; i++ {
		svc := service.New(c.dial(),
			service.WithSyncInterval(SyncInterval),
			service.WithLogger(c.log.Named("device")),
		)
		if err := svc.Start(ctx); err != nil {
			return fmt.Errorf("start player %d: %w", i, err)
		}
		b := newBot(i, svc, &c.cfg, &c.stats, c.log)
		c.bots = append(c.bots, b)
		if _, err := svc.Join(ctx, b.name, b.team); err != nil {
			return fmt.Errorf("join %s: %w", b.name, err)
		}
		atomic.AddInt64(&c.stats.Joined, 1)
	}
	return nil
}

func (c *Crowd) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	for _, b := range c.bots {
		if err := b.svc.Stop(ctx); err != nil {
			c.log.Warn(ctx, "player did not stop cleanly", logger.String("player", b.name), logger.Error(err))
		}
	}
}

// report logs the top of the standings from the first mirror that has one.
func (c *Crowd) report(ctx context.Context) {
	for _, b := range c.bots {
		snap, ok := b.svc.State()
		if !ok {
			continue
		}
		for _, e := range standings.Top(snap, c.cfg.TopN) {
			c.log.Info(ctx, "standing",
				logger.Int("rank", e.Rank),
				logger.String("name", e.Name),
				logger.Int("score", e.Score),
				logger.Int("correct", e.Correct),
			)
		}
		return
	}
	c.log.Warn(ctx, "no published session seen")
}

// displayFinalStats logs the final crowd statistics.
func (c *Crowd) displayFinalStats() {
	c.log.Info(context.Background(), "final statistics",
		logger.Int64("joined", atomic.LoadInt64(&c.stats.Joined)),
		logger.Int64("confirmed", atomic.LoadInt64(&c.stats.Confirmed)),
		logger.Int64("kicked", atomic.LoadInt64(&c.stats.Kicked)),
		logger.Int64("buzzes", atomic.LoadInt64(&c.stats.Buzzes)),
		logger.Int64("buzzErrors", atomic.LoadInt64(&c.stats.BuzzErrors)),
		logger.Duration("duration", c.stats.Duration),
	)
}
