package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/quizlive/internal/adapters/mq/queue"
	"github.com/okian/quizlive/internal/adapters/relay"
	"github.com/okian/quizlive/internal/auth"
	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/internal/domain/types"
	"github.com/okian/quizlive/pkg/logger"
	"github.com/okian/quizlive/pkg/metrics"
)

// Relay protocol actions, selected with ?action=.
const (
	ActionGetState          = "getState"
	ActionGetIntents        = "getIntents"
	ActionGetPublicSettings = "getPublicSettings"
	ActionPushState         = "pushState"
	ActionPushIntent        = "pushIntent"
	ActionLogin             = "login"
	ActionUpdateSettings    = "updateSettings"
)

var actionMethods = map[string]string{
	ActionGetState:          http.MethodGet,
	ActionGetIntents:        http.MethodGet,
	ActionGetPublicSettings: http.MethodGet,
	ActionPushState:         http.MethodPost,
	ActionPushIntent:        http.MethodPost,
	ActionLogin:             http.MethodPost,
	ActionUpdateSettings:    http.MethodPost,
}

// intentRequest is the body of pushIntent. Id and created_at are assigned
// by the channel, so they are not read.
type intentRequest struct {
	Type    model.IntentType `json:"type"`
	Payload json.RawMessage  `json:"payload"`
}

// HandleAction serves GET|POST /api?action=<name>.
func (s *Server) HandleAction(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	method, ok := actionMethods[action]
	if !ok {
		writeJSON(w, http.StatusBadRequest, types.Ack{Error: fmt.Sprintf("%v: %q", ErrUnknownAction, action)})
		return
	}
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeJSON(w, http.StatusMethodNotAllowed, types.Ack{Error: http.StatusText(http.StatusMethodNotAllowed)})
		return
	}
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}

	switch action {
	case ActionGetState:
		s.getState(w, r)
	case ActionGetIntents:
		s.getIntents(w, r)
	case ActionGetPublicSettings:
		s.getPublicSettings(w, r)
	case ActionPushState:
		s.pushState(w, r)
	case ActionPushIntent:
		s.pushIntent(w, r)
	case ActionLogin:
		s.login(w, r)
	case ActionUpdateSettings:
		s.updateSettings(w, r)
	}
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	state, err := s.relay.GetState(r.Context())
	if err != nil {
		s.failure(w, r, ActionGetState, err)
		return
	}
	if len(state) == 0 {
		state = []byte("{}")
	}
	writeRaw(w, http.StatusOK, state)
}

func (s *Server) getIntents(w http.ResponseWriter, r *http.Request) {
	intents, err := s.relay.DrainIntents(r.Context())
	if err != nil {
		s.failure(w, r, ActionGetIntents, err)
		return
	}
	if intents == nil {
		intents = []model.Intent{}
	}
	writeJSON(w, http.StatusOK, intents)
}

func (s *Server) getPublicSettings(w http.ResponseWriter, r *http.Request) {
	joinURL, err := s.auth.JoinURL(r.Context())
	if err != nil {
		s.failure(w, r, ActionGetPublicSettings, err)
		return
	}
	writeJSON(w, http.StatusOK, types.PublicSettings{JoinURL: joinURL})
}

func (s *Server) pushState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, types.Ack{Error: err.Error()})
		return
	}
	if err := s.relay.PushState(r.Context(), body); err != nil {
		if errors.Is(err, relay.ErrInvalidState) {
			writeJSON(w, http.StatusBadRequest, types.Ack{Error: err.Error()})
			return
		}
		s.failure(w, r, ActionPushState, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Ack{Success: true})
}

func (s *Server) pushIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.Ack{Error: fmt.Sprintf("%v: %v", ErrBadRequest, err)})
		return
	}
	in, err := s.relay.PushIntent(r.Context(), model.Intent{Type: req.Type, Payload: req.Payload})
	switch {
	case errors.Is(err, queue.ErrInvalidIntent):
		writeJSON(w, http.StatusBadRequest, types.Ack{Error: err.Error()})
	case errors.Is(err, queue.ErrFull):
		writeJSON(w, http.StatusTooManyRequests, types.Ack{Error: err.Error()})
	case err != nil:
		s.failure(w, r, ActionPushIntent, err)
	default:
		writeJSON(w, http.StatusOK, types.Ack{Success: true, ID: in.ID})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.LoginResult{})
		return
	}
	token, joinURL, err := s.auth.Login(r.Context(), req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.RecordAuthAttempt("failure")
		writeJSON(w, http.StatusOK, types.LoginResult{})
	case err != nil:
		s.failure(w, r, ActionLogin, err)
	default:
		metrics.RecordAuthAttempt("success")
		writeJSON(w, http.StatusOK, types.LoginResult{Success: true, Token: token, JoinURL: joinURL})
	}
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.Ack{Error: fmt.Sprintf("%v: %v", ErrBadRequest, err)})
		return
	}
	err := s.auth.UpdateSettings(r.Context(), req.Token, req.JoinURL, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, types.Ack{Error: err.Error()})
	case errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, types.Ack{Error: err.Error()})
	case err != nil:
		s.failure(w, r, ActionUpdateSettings, err)
	default:
		writeJSON(w, http.StatusOK, types.Ack{Success: true})
	}
}

// failure reports a backing-store error as a 500.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, action string, err error) {
	s.log.Error(r.Context(), "relay action failed", logger.String("action", action), logger.Error(err))
	metrics.RecordErrorByComponent("relay", action)
	writeJSON(w, http.StatusInternalServerError, types.Ack{Error: err.Error()})
}
