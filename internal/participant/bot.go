package participant

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	service "github.com/okian/quizlive/internal/app"
	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/pkg/logger"
)

// bot is one simulated device: a client-role engine plus the decisions a
// player at a phone would make.
type bot struct {
	name  string
	team  string
	svc   *service.Service
	rng   *rand.Rand
	cfg   *Config
	stats *Stats
	log   logger.Logger

	confirmed bool
	question  int
	planned   bool
	buzzAt    time.Time
}

func newBot(i int, svc *service.Service, cfg *Config, stats *Stats, log logger.Logger) *bot {
	name := playerName(i)
	return &bot{
		name:     name,
		team:     teamName(i, cfg.Teams),
		svc:      svc,
		rng:      rand.New(rand.NewPCG(cfg.Seed, uint64(i))),
		cfg:      cfg,
		stats:    stats,
		log:      log.With(logger.String("player", name)),
		question: -1,
	}
}

// run looks at the mirror every interval until ctx ends or the host removes
// the player.
func (b *bot) run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if !b.step(ctx, now) {
				return nil
			}
		}
	}
}

// step reports whether the bot is still in the game.
func (b *bot) step(ctx context.Context, now time.Time) bool {
	if b.svc.Kicked() {
		atomic.AddInt64(&b.stats.Kicked, 1)
		b.log.Info(ctx, "removed by host")
		return false
	}
	_, confirmed := b.svc.CurrentPlayer()
	if !confirmed {
		return true
	}
	if !b.confirmed {
		b.confirmed = true
		atomic.AddInt64(&b.stats.Confirmed, 1)
	}

	snap, ok := b.svc.State()
	if !ok {
		return true
	}
	sess := snap.Session
	if sess.Phase != model.PhaseBuzzerOpen && sess.Phase != model.PhaseAdjudication {
		return true
	}
	if sess.ActiveQuestionIndex != b.question {
		b.question = sess.ActiveQuestionIndex
		b.planned = b.rng.Float64() < b.cfg.BuzzChance
		b.buzzAt = now.Add(time.Duration(reactionDelay(b.rng, int64(b.cfg.MaxReaction))))
	}
	if !b.planned || now.Before(b.buzzAt) {
		return true
	}
	b.planned = false

	if err := b.svc.Buzz(ctx); err != nil {
		atomic.AddInt64(&b.stats.BuzzErrors, 1)
		b.log.Warn(ctx, "buzz failed", logger.Error(err))
		return true
	}
	atomic.AddInt64(&b.stats.Buzzes, 1)
	if b.cfg.Verbose {
		b.log.Info(ctx, "buzzed", logger.Int("question", b.question))
	}
	return true
}
