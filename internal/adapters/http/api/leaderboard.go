package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/internal/domain/standings"
	"github.com/okian/quizlive/internal/domain/types"
)

type leaderboardResponse struct {
	GameName string            `json:"game_name"`
	Phase    string            `json:"phase"`
	Players  []types.Entry     `json:"players"`
	Teams    []types.TeamEntry `json:"teams"`
}

// HandleLeaderboard handles GET /leaderboard?limit=N. Without a limit every
// player up to the configured maximum is returned.
func (s *Server) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := s.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if v > s.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		n = v
	}
	snap, ok := s.published(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{
		GameName: snap.ActiveGameName,
		Phase:    snap.Session.Phase.String(),
		Players:  standings.Top(snap, n),
		Teams:    standings.Teams(snap),
	})
}

// HandlePodium handles GET /podium.
func (s *Server) HandlePodium(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, ok := s.published(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, standings.Final(snap, 3))
}

// published writes the error response itself when no usable snapshot exists.
func (s *Server) published(w http.ResponseWriter, r *http.Request) (model.Snapshot, bool) {
	snap, err := s.snapshot(r.Context())
	switch {
	case errors.Is(err, ErrNoState):
		writeError(w, http.StatusNotFound, "no_state", err)
		return snap, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return snap, false
	}
	return snap, true
}

func (s *Server) snapshot(ctx context.Context) (model.Snapshot, error) {
	raw, err := s.relay.GetState(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap, ok, err := model.DecodeSnapshot(raw)
	if err != nil {
		return model.Snapshot{}, err
	}
	if !ok {
		return model.Snapshot{}, ErrNoState
	}
	return snap, nil
}
