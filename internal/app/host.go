package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/quizlive/internal/domain/game"
	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/internal/domain/types"
	"github.com/okian/quizlive/pkg/logger"
	"github.com/okian/quizlive/pkg/metrics"
)

type timerKey struct {
	phase model.Phase
	value int
}

// hostCycle drains the intent channel, applies what it found and publishes
// the full snapshot.
func (s *Service) hostCycle(ctx context.Context, gen uint64) error {
	intents, err := s.relay.DrainIntents(ctx)
	if err != nil {
		return fmt.Errorf("drain intents: %w", err)
	}

	s.mu.Lock()
	if s.roleGen != gen {
		s.mu.Unlock()
		s.logger.Warn(ctx, "role changed during host cycle, dropping drained intents",
			logger.Int("intents", len(intents)))
		return nil
	}
	for _, in := range intents {
		s.applyLocked(ctx, in)
	}
	s.afterMutationLocked(ctx)
	state, version, err := s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.relay.PushState(ctx, state); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	metrics.RecordSnapshotPublished(len(state), version)
	return nil
}

// applyLocked applies one intent. Rejected intents are counted and dropped.
func (s *Service) applyLocked(ctx context.Context, in model.Intent) {
	if s.deduper.SeenAndRecord(ctx, in.ID) {
		s.reject(ctx, in, "duplicate", nil)
		return
	}

	var err error
	switch in.Type {
	case model.IntentJoin:
		var p model.JoinPayload
		if p, err = in.DecodeJoin(); err == nil {
			_, _, err = s.game.Join(p.ID, p.Name, p.TeamName, true)
		}
	case model.IntentBuzz:
		var p model.PlayerPayload
		if p, err = in.DecodePlayer(); err == nil {
			_, err = s.game.SubmitBuzz(p.PlayerID, model.MillisOf(s.clock.Now()))
		}
	case model.IntentLeave:
		var p model.PlayerPayload
		if p, err = in.DecodePlayer(); err == nil {
			err = s.game.Leave(p.PlayerID)
		}
	default:
		err = model.ErrUnknownIntentType
	}

	if err != nil {
		reason := "invalid"
		if errors.Is(err, game.ErrRejected) {
			reason = "rejected"
		}
		s.reject(ctx, in, reason, err)
		return
	}
	metrics.RecordIntentApplied(string(in.Type))
}

func (s *Service) reject(ctx context.Context, in model.Intent, reason string, err error) {
	metrics.RecordIntentRejected(reason)
	s.logger.Debug(ctx, "intent ignored",
		logger.String("id", in.ID),
		logger.String("type", string(in.Type)),
		logger.String("reason", reason),
		logger.Error(err),
	)
}

func (s *Service) encodeLocked() ([]byte, int64, error) {
	snap := s.game.Snapshot()
	s.version++
	snap.Version = s.version
	snap.PublishedAt = model.MillisOf(s.clock.Now())
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, 0, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, snap.Version, nil
}

// Execute runs a host control command. The next cycle publishes the result;
// one is triggered right away.
func (s *Service) Execute(ctx context.Context, cmd types.HostCommand) error {
	if cmd.Command == types.CmdLoad {
		return s.load(ctx, cmd.SetID)
	}

	s.mu.Lock()
	if s.role != RoleHost {
		s.mu.Unlock()
		return ErrNotHost
	}
	err := s.executeLocked(ctx, cmd)
	if err == nil {
		s.afterMutationLocked(ctx)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug(ctx, "host command ignored", logger.String("command", cmd.Command), logger.Error(err))
		return err
	}
	s.SyncNow()
	return nil
}

func (s *Service) executeLocked(ctx context.Context, cmd types.HostCommand) error {
	switch cmd.Command {
	case types.CmdStart:
		return s.game.Start()
	case types.CmdAdvance:
		return s.game.Advance()
	case types.CmdOpenBuzzers:
		return s.game.OpenBuzzers(model.MillisOf(s.clock.Now()))
	case types.CmdSkip:
		return s.game.Skip()
	case types.CmdReveal:
		return s.game.AdvancePhase()
	case types.CmdResolve:
		ruling, err := s.game.Resolve(cmd.PlayerID, cmd.Correct)
		if err != nil {
			return err
		}
		s.recordRuling(ctx, ruling)
		return nil
	case types.CmdRectify:
		status, err := model.ParseBuzzStatus(cmd.Status)
		if err != nil {
			return fmt.Errorf("%w: %v", game.ErrInvalidStatus, err)
		}
		ruling, err := s.game.Rectify(cmd.PlayerID, status)
		if err != nil {
			return err
		}
		metrics.RecordAdjudication("rectified")
		s.logger.Info(ctx, "ruling rectified",
			logger.String("player", ruling.PlayerID),
			logger.String("status", ruling.Status.String()),
		)
		return nil
	case types.CmdApprove:
		return s.game.Approve(cmd.PlayerID)
	case types.CmdEvict:
		if err := s.game.Leave(cmd.PlayerID); err != nil {
			return err
		}
		if s.current.id == cmd.PlayerID {
			s.current = currentPlayer{}
		}
		return nil
	case types.CmdAddPlayer:
		_, err := s.addPlayerLocked(cmd.Name, cmd.TeamName)
		return err
	case types.CmdReset:
		s.game.Reset()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
}

func (s *Service) recordRuling(ctx context.Context, r game.Ruling) {
	outcome := "wrong"
	if r.Status == model.BuzzCorrect {
		outcome = "correct"
	}
	metrics.RecordAdjudication(outcome)
	if r.ReactionMs != nil {
		metrics.RecordBuzzReaction(*r.ReactionMs)
	}
	s.logger.Info(ctx, "buzz resolved",
		logger.String("player", r.PlayerID),
		logger.String("outcome", outcome),
		logger.Int("points", r.Points),
	)
}

// addPlayerLocked is the host-side add: generated id, not yet approved. The
// first player added on this device becomes its current player.
func (s *Service) addPlayerLocked(name, team string) (string, error) {
	p, _, err := s.game.Join("", name, team, false)
	if err != nil {
		return "", err
	}
	if s.current.id == "" {
		s.current = currentPlayer{id: p.ID, confirmed: true}
	}
	return p.ID, nil
}

// load replaces the active question set. The library lookup runs outside
// the lock.
func (s *Service) load(ctx context.Context, setID string) error {
	if s.Role() != RoleHost {
		return ErrNotHost
	}
	if s.library == nil {
		return ErrNoLibrary
	}
	set, err := s.library.Get(ctx, setID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.role != RoleHost {
		s.mu.Unlock()
		return ErrNotHost
	}
	err = s.game.Load(set.Name, set.Questions)
	if err == nil {
		s.afterMutationLocked(ctx)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "question set loaded", logger.String("set", set.ID), logger.Int("questions", len(set.Questions)))
	s.SyncNow()
	return nil
}

// afterMutationLocked records phase and roster changes and keeps the
// countdown timer in step with the session.
func (s *Service) afterMutationLocked(ctx context.Context) {
	s.syncTimerLocked(ctx)
	if phase := s.game.Phase(); phase != s.lastPhase {
		s.logger.Debug(ctx, "phase changed",
			logger.String("from", s.lastPhase.String()),
			logger.String("to", phase.String()),
		)
		s.lastPhase = phase
		metrics.RecordPhaseTransition(phase.String())
	}
	metrics.UpdateRoster(len(s.game.Players()), len(s.game.Teams()))
}

// syncTimerLocked arms a one-step timer while the host sits in COUNTDOWN
// and re-arms it whenever (phase, value) changes. A value of zero moves on
// to QUESTION_DISPLAY at once.
func (s *Service) syncTimerLocked(ctx context.Context) {
	sess := s.game.Session()
	if s.role == RoleHost && sess.Phase == model.PhaseCountdown && sess.CountdownValue <= 0 {
		_ = s.game.Tick()
		sess = s.game.Session()
	}
	if s.role != RoleHost || sess.Phase != model.PhaseCountdown {
		s.stopTimerLocked()
		return
	}
	key := timerKey{phase: sess.Phase, value: sess.CountdownValue}
	if s.timer != nil && s.timerKey == key {
		return
	}
	s.stopTimerLocked()
	s.timerGen++
	gen := s.timerGen
	s.timerKey = key
	s.timer = s.clock.AfterFunc(s.countdownStep, func() { s.onTick(gen) })
}

func (s *Service) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// onTick fires from the countdown timer. A firing from a stopped or
// replaced timer is discarded.
func (s *Service) onTick(gen uint64) {
	ctx := context.Background()
	s.mu.Lock()
	if gen != s.timerGen || s.role != RoleHost {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	err := s.game.Tick()
	if err == nil {
		s.afterMutationLocked(ctx)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug(ctx, "countdown tick ignored", logger.Error(err))
		return
	}
	s.SyncNow()
}
