package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/okian/quizlive/internal/adapters/library"
	"github.com/okian/quizlive/internal/domain/game"
	"github.com/okian/quizlive/internal/domain/types"
	"github.com/okian/quizlive/pkg/logger"
)

// HandleHost handles POST /host/{command}. The request must carry the token
// issued by login as a Bearer credential.
func (s *Server) HandleHost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/host/")
	if !slices.Contains(types.HostCommands, name) {
		writeError(w, http.StatusNotFound, "unknown_command", ErrUnknownCommand)
		return
	}
	if _, err := s.auth.Validate(bearer(r)); err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="quizlive"`)
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	cmd := types.HostCommand{}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	cmd.Command = name

	err := s.host.Execute(r.Context(), cmd)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, types.Ack{Success: true})
	case errors.Is(err, game.ErrRejected):
		s.log.Debug(r.Context(), "host command rejected", logger.String("command", name), logger.Error(err))
		writeError(w, http.StatusConflict, "rejected", err)
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		s.log.Error(r.Context(), "host command failed", logger.String("command", name), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
