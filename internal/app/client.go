package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/quizlive/internal/domain/game"
	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/pkg/logger"
)

// clientCycle replaces the mirror with the published snapshot and checks
// whether this device's player is still on the roster.
func (s *Service) clientCycle(ctx context.Context, gen uint64) error {
	raw, err := s.relay.GetState(ctx)
	if err != nil {
		s.mu.Lock()
		s.syncing = true
		s.mu.Unlock()
		return fmt.Errorf("get state: %w", err)
	}

	snap, ok, err := model.DecodeSnapshot(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roleGen != gen {
		return nil
	}
	s.syncing = false
	if err != nil || !ok {
		s.logger.Debug(ctx, "no usable snapshot published", logger.Error(err))
		return nil
	}
	s.mirror, s.hasMirror = snap, true
	s.lastSynced = s.clock.Now()

	if s.current.id == "" {
		return nil
	}
	if _, present := snap.Player(s.current.id); present {
		s.current.confirmed = true
		return nil
	}
	if s.current.confirmed {
		s.logger.Info(ctx, "current player removed by host", logger.String("player", s.current.id))
		s.current = currentPlayer{}
		s.kicked = true
	}
	return nil
}

// Join makes name this device's player. A host adds the player directly; a
// client picks the id itself and asks the host with a JOIN intent. The id
// stays pending until it shows up in a published snapshot.
func (s *Service) Join(ctx context.Context, name, team string) (string, error) {
	s.mu.Lock()
	if s.role == RoleHost {
		id, err := s.addPlayerLocked(name, team)
		if err == nil {
			s.current = currentPlayer{id: id, confirmed: true}
			s.afterMutationLocked(ctx)
		}
		s.mu.Unlock()
		if err != nil {
			return "", err
		}
		s.SyncNow()
		return id, nil
	}

	name, team = strings.TrimSpace(name), strings.TrimSpace(team)
	if name == "" {
		s.mu.Unlock()
		return "", game.ErrInvalidName
	}
	id := s.newID()
	s.current = currentPlayer{id: id}
	s.kicked = false
	s.mu.Unlock()

	if err := s.push(ctx, model.IntentJoin, model.JoinPayload{ID: id, Name: name, TeamName: team}); err != nil {
		return "", err
	}
	return id, nil
}

// Buzz submits a buzz for this device's player.
func (s *Service) Buzz(ctx context.Context) error {
	s.mu.Lock()
	id := s.current.id
	if id == "" {
		s.mu.Unlock()
		return ErrNotJoined
	}
	if s.role == RoleHost {
		_, err := s.game.SubmitBuzz(id, model.MillisOf(s.clock.Now()))
		if err == nil {
			s.afterMutationLocked(ctx)
		}
		s.mu.Unlock()
		if err != nil {
			return err
		}
		s.SyncNow()
		return nil
	}
	s.mu.Unlock()
	return s.push(ctx, model.IntentBuzz, model.PlayerPayload{PlayerID: id})
}

// Leave removes this device's player from the session.
func (s *Service) Leave(ctx context.Context) error {
	s.mu.Lock()
	id := s.current.id
	if id == "" {
		s.mu.Unlock()
		return ErrNotJoined
	}
	if s.role == RoleHost {
		err := s.game.Leave(id)
		if err == nil {
			s.current = currentPlayer{}
			s.afterMutationLocked(ctx)
		}
		s.mu.Unlock()
		if err != nil {
			return err
		}
		s.SyncNow()
		return nil
	}
	s.current = currentPlayer{}
	s.mu.Unlock()
	return s.push(ctx, model.IntentLeave, model.PlayerPayload{PlayerID: id})
}

func (s *Service) push(ctx context.Context, t model.IntentType, payload any) error {
	in, err := model.NewIntent(t, payload)
	if err != nil {
		return err
	}
	out, err := s.relay.PushIntent(ctx, in)
	if err != nil {
		return fmt.Errorf("push %s: %w", t, err)
	}
	s.logger.Debug(ctx, "intent pushed", logger.String("id", out.ID), logger.String("type", string(t)))
	return nil
}

// CurrentPlayer returns this device's player id and whether a published
// snapshot has confirmed it.
func (s *Service) CurrentPlayer() (id string, confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.id, s.current.confirmed
}

// Kicked reports whether a confirmed player disappeared from the roster.
// It is cleared by the next Join.
func (s *Service) Kicked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kicked
}

// Syncing reports whether the last poll failed to reach the relay.
func (s *Service) Syncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}
