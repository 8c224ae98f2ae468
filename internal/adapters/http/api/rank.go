package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/quizlive/internal/domain/standings"
)

var errPlayerNotFound = errors.New("player not found")

// HandleRank handles GET /rank/{player_id}.
func (s *Server) HandleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/rank/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	snap, ok := s.published(w, r)
	if !ok {
		return
	}
	entry, found := standings.Rank(snap, id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", errPlayerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
