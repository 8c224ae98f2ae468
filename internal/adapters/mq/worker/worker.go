// Package worker runs the sync cycles on a fixed interval.
//
// A Poller never runs two cycles of its own at once: a tick that arrives
// while the previous cycle is still in flight is skipped and counted. A
// failed cycle is logged and the next tick is the retry.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/quizlive/pkg/logger"
	"github.com/okian/quizlive/pkg/metrics"
)

const defaultInterval = 500 * time.Millisecond

// Cycle is one unit of periodic work.
type Cycle func(ctx context.Context) error

// Poller drives a Cycle on a ticker.
type Poller struct {
	cycle    Cycle
	name     string
	interval time.Duration
	clock    clockwork.Clock
	logger   logger.Logger

	inFlight atomic.Bool
	wg       sync.WaitGroup
	cycles   atomic.Int64
	skipped  atomic.Int64
	failures atomic.Int64

	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewPoller creates a poller for cycle.
func NewPoller(cycle Cycle, opts ...Option) *Poller {
	p := &Poller{
		cycle:    cycle,
		name:     "poller",
		interval: defaultInterval,
		clock:    clockwork.NewRealClock(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	return p
}

// Run fires a cycle immediately and then once per interval until ctx is
// cancelled or Shutdown is called. It waits for the in-flight cycle before
// returning.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)
	defer p.wg.Wait()

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info(ctx, "poller started", logger.Duration("interval", p.interval))
	p.Trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.Chan():
			p.Trigger(ctx)
		}
	}
}

// Trigger starts a cycle in the background unless one is already running.
// It reports whether a cycle was started.
func (p *Poller) Trigger(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		metrics.RecordSyncCycleSkipped(p.name)
		p.logger.Debug(ctx, "cycle still in flight, skipping tick")
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runCycle(ctx)
		p.inFlight.Store(false)
		p.cycles.Add(1)
	}()
	return true
}

func (p *Poller) runCycle(ctx context.Context) {
	start := p.clock.Now()
	err := p.cycle(ctx)
	metrics.RecordSyncCycle(p.name, float64(p.clock.Since(start).Milliseconds()))
	if err != nil {
		p.failures.Add(1)
		metrics.RecordSyncError(p.name)
		p.logger.Warn(ctx, "sync cycle failed", logger.Error(err))
	}
}

// Shutdown stops the loop and waits for the in-flight cycle.
func (p *Poller) Shutdown(ctx context.Context) error {
	p.once.Do(func() { close(p.shutdown) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Cycles returns the number of completed cycles.
func (p *Poller) Cycles() int64 { return p.cycles.Load() }

// Skipped returns the number of ticks dropped because a cycle was running.
func (p *Poller) Skipped() int64 { return p.skipped.Load() }

// Failures returns the number of cycles that returned an error.
func (p *Poller) Failures() int64 { return p.failures.Load() }
