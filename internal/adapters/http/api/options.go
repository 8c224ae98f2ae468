package api

import "github.com/okian/quizlive/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithHost enables POST /host/{command} against h.
func WithHost(h Host) Option {
	return func(s *Server) { s.host = h }
}

// WithStats sets the provider behind GET /stats.
func WithStats(p StatsProvider) Option {
	return func(s *Server) { s.stats = p }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxLimit caps the limit accepted by GET /leaderboard.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxBody caps request bodies in bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithCORSOrigins sets the allowed origins. Empty keeps "*".
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}
