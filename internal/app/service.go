// Package service is the sync engine. One Service runs per device: in host
// role it owns the game, applies drained intents and publishes the full
// snapshot; in client role it mirrors the published snapshot and submits
// intents.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/quizlive/internal/adapters/library"
	"github.com/okian/quizlive/internal/adapters/mq/worker"
	"github.com/okian/quizlive/internal/adapters/relay"
	"github.com/okian/quizlive/internal/domain/dedupe"
	"github.com/okian/quizlive/internal/domain/game"
	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/pkg/logger"
	"github.com/okian/quizlive/pkg/metrics"
)

const (
	defaultSyncInterval  = 500 * time.Millisecond
	defaultCountdownStep = time.Second
	defaultDedupeSize    = 10000
)

// Role selects which half of the protocol a Service speaks.
type Role uint8

const (
	RoleClient Role = iota
	RoleHost
)

func (r Role) String() string {
	if r == RoleHost {
		return "host"
	}
	return "client"
}

// Service implements both sync engines behind a role gate. Every mutation,
// whether from a poll cycle, a countdown tick or a host command, happens
// under mu.
type Service struct {
	mu sync.Mutex

	relay   relay.Relay
	game    *game.Game
	library library.Library
	deduper dedupe.Deduper
	clock   clockwork.Clock
	logger  logger.Logger
	newID   func() string

	role    Role
	roleGen uint64

	// host
	version   int64
	lastPhase model.Phase
	timer     clockwork.Timer
	timerGen  uint64
	timerKey  timerKey

	// client
	mirror     model.Snapshot
	hasMirror  bool
	current    currentPlayer
	kicked     bool
	syncing    bool
	lastSynced time.Time

	// Configuration
	syncInterval  time.Duration
	countdownStep time.Duration
	dedupeSize    int
	initialSet    string
	resume        bool

	// State
	poller  *worker.Poller
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc
}

type currentPlayer struct {
	id        string
	confirmed bool
}

// New constructs a Service talking to r. It starts in client role unless
// WithRole says otherwise.
func New(r relay.Relay, opts ...Option) *Service {
	s := &Service{
		relay:         r,
		clock:         clockwork.NewRealClock(),
		newID:         uuid.NewString,
		syncInterval:  defaultSyncInterval,
		countdownStep: defaultCountdownStep,
		dedupeSize:    defaultDedupeSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("sync")
	}
	if s.game == nil {
		s.game = game.New(game.WithIDGenerator(s.newID))
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	s.lastPhase = s.game.Phase()
	return s
}

// Start prepares the host session if needed and begins polling.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	role := s.role
	s.mu.Unlock()

	if role == RoleHost {
		if err := s.prepareHost(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.runCtx, s.cancel = runCtx, cancel
	s.poller = worker.NewPoller(s.cycle,
		worker.WithName("sync"),
		worker.WithInterval(s.syncInterval),
		worker.WithClock(s.clock),
		worker.WithLogger(s.logger.Named("poller")),
	)
	go s.poller.Run(runCtx)
	s.started = true
	s.logger.Info(ctx, "sync engine started",
		logger.String("role", s.role.String()),
		logger.Duration("interval", s.syncInterval),
	)
	return nil
}

// prepareHost restores the last published session when resuming and loads
// the initial question set into a fresh one.
func (s *Service) prepareHost(ctx context.Context) error {
	if s.resume {
		raw, err := s.relay.GetState(ctx)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		snap, ok, err := model.DecodeSnapshot(raw)
		if err == nil && ok {
			s.mu.Lock()
			err = s.game.Restore(snap)
			if err == nil {
				s.version = snap.Version
				s.afterMutationLocked(ctx)
			}
			s.mu.Unlock()
			if err == nil {
				s.logger.Info(ctx, "resumed published session",
					logger.Int64("version", snap.Version),
					logger.String("phase", snap.Session.Phase.String()),
				)
				return nil
			}
		}
		s.logger.Warn(ctx, "nothing to resume, starting fresh", logger.Error(err))
	}
	if s.initialSet == "" || s.library == nil {
		return nil
	}
	set, err := s.library.Get(ctx, s.initialSet)
	if err != nil {
		return fmt.Errorf("initial question set: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Load(set.Name, set.Questions); err != nil {
		return fmt.Errorf("initial question set: %w", err)
	}
	s.afterMutationLocked(ctx)
	return nil
}

// Stop halts polling and the countdown timer.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.stopTimerLocked()
	p, cancel := s.poller, s.cancel
	s.mu.Unlock()

	err := p.Shutdown(ctx)
	cancel()
	s.logger.Info(ctx, "sync engine stopped")
	return err
}

// Role returns the current role.
func (s *Service) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// SetRole switches roles. Cycles that started under the previous role
// discard their results. A client that becomes host takes over the session
// it last mirrored, so its first publish continues that session.
func (s *Service) SetRole(ctx context.Context, r Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role == r {
		return
	}
	s.role = r
	s.roleGen++
	s.logger.Info(ctx, "role changed", logger.String("role", r.String()))
	if r != RoleHost {
		s.stopTimerLocked()
		return
	}
	if s.hasMirror {
		if err := s.game.Restore(s.mirror); err != nil {
			s.logger.Warn(ctx, "mirrored session not restorable, keeping local game", logger.Error(err))
		} else {
			s.version = max(s.version, s.mirror.Version)
			s.logger.Info(ctx, "took over mirrored session",
				logger.Int64("version", s.mirror.Version),
				logger.String("phase", s.mirror.Session.Phase.String()),
			)
		}
	}
	s.afterMutationLocked(ctx)
}

// cycle is the poller callback; it dispatches on the role captured at the
// start of the cycle.
func (s *Service) cycle(ctx context.Context) error {
	s.mu.Lock()
	role, gen := s.role, s.roleGen
	s.mu.Unlock()
	if role == RoleHost {
		return s.hostCycle(ctx, gen)
	}
	return s.clientCycle(ctx, gen)
}

// SyncNow runs a cycle in the background unless one is in flight. It does
// nothing before Start.
func (s *Service) SyncNow() {
	s.mu.Lock()
	p, ctx, started := s.poller, s.runCtx, s.started
	s.mu.Unlock()
	if started {
		p.Trigger(ctx)
	}
}

// State returns the session as this device sees it: the live game for the
// host, the last mirrored snapshot for a client.
func (s *Service) State() (model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role == RoleHost {
		snap := s.game.Snapshot()
		snap.Version = s.version
		return snap, true
	}
	return s.mirror, s.hasMirror
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"started":      s.started,
		"role":         s.role.String(),
		"syncInterval": s.syncInterval.String(),
		"dedupeSize":   s.deduper.Size(),
	}
	if s.role == RoleHost {
		sess := s.game.Session()
		stats["phase"] = sess.Phase.String()
		stats["questionIndex"] = sess.ActiveQuestionIndex
		stats["players"] = len(s.game.Players())
		stats["teams"] = len(s.game.Teams())
		stats["version"] = s.version
	} else {
		stats["syncing"] = s.syncing
		stats["hasMirror"] = s.hasMirror
		stats["currentPlayer"] = s.current.id
		if s.hasMirror {
			stats["version"] = s.mirror.Version
		}
	}
	if s.poller != nil {
		stats["cycles"] = s.poller.Cycles()
		stats["skippedCycles"] = s.poller.Skipped()
		stats["failedCycles"] = s.poller.Failures()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	return stats
}
