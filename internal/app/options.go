package service

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/quizlive/internal/adapters/library"
	"github.com/okian/quizlive/internal/domain/dedupe"
	"github.com/okian/quizlive/internal/domain/game"
	"github.com/okian/quizlive/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRole sets the starting role.
func WithRole(r Role) Option {
	return func(s *Service) { s.role = r }
}

// WithSyncInterval sets the poll interval.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncInterval = d
		}
	}
}

// WithCountdownStep sets how long each countdown value is shown.
func WithCountdownStep(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.countdownStep = d
		}
	}
}

// WithDedupeSize sets how many intent ids the host remembers.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDeduper replaces the intent replay guard.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) { s.deduper = d }
}

// WithGame sets the game the host drives.
func WithGame(g *game.Game) Option {
	return func(s *Service) { s.game = g }
}

// WithLibrary sets where the load command finds question sets.
func WithLibrary(lib library.Library) Option {
	return func(s *Service) { s.library = lib }
}

// WithInitialSet names the question set a fresh host session starts with.
func WithInitialSet(id string) Option {
	return func(s *Service) { s.initialSet = id }
}

// WithResume makes a starting host continue from the published snapshot.
func WithResume(resume bool) Option {
	return func(s *Service) { s.resume = resume }
}

// WithClock sets the clock for timers, the poll ticker and buzz timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator sets the generator for player and team ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
