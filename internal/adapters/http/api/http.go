// Package api serves the relay endpoint and the read-only and host control
// routes around it.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/okian/quizlive/internal/adapters/relay"
	"github.com/okian/quizlive/internal/auth"
	"github.com/okian/quizlive/internal/domain/types"
	"github.com/okian/quizlive/pkg/logger"
)

const (
	defaultMaxLimit = 100
	defaultMaxBody  = 4 << 20
)

// Authenticator checks host credentials and owns the relay settings.
type Authenticator interface {
	Login(ctx context.Context, password string) (token, joinURL string, err error)
	UpdateSettings(ctx context.Context, token, joinURL, newPassword string) error
	JoinURL(ctx context.Context) (string, error)
	Validate(token string) (*auth.Claims, error)
}

// Host executes control commands against an embedded host session.
type Host interface {
	Execute(ctx context.Context, cmd types.HostCommand) error
}

// Server wires HTTP routes for the relay and its companions.
type Server struct {
	relay relay.Relay
	auth  Authenticator
	host  Host
	stats StatsProvider
	log   logger.Logger

	maxLimit    int
	maxBody     int64
	corsOrigins []string
}

// NewServer creates a server over r and a. The host routes are only
// registered when WithHost is given.
func NewServer(r relay.Relay, a Authenticator, opts ...Option) *Server {
	s := &Server{
		relay:       r,
		auth:        a,
		maxLimit:    defaultMaxLimit,
		maxBody:     defaultMaxBody,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("api")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api", MetricsMiddleware(s.HandleAction, "api"))
	mux.HandleFunc("/api.php", MetricsMiddleware(s.HandleAction, "api"))
	mux.HandleFunc("/healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.HandleLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.HandleRank, "rank"))
	mux.HandleFunc("/podium", MetricsMiddleware(s.HandlePodium, "podium"))
	mux.HandleFunc("/join.png", MetricsMiddleware(s.HandleJoinQR, "join_qr"))
	if s.host != nil {
		mux.HandleFunc("/host/", MetricsMiddleware(s.HandleHost, "host"))
	}
}

// Handler wraps h with the CORS policy browsers need to reach the relay
// from another origin.
func (s *Server) Handler(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(h)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
