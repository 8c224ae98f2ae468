package game

import "github.com/okian/quizlive/internal/domain/model"

// Option applies a configuration option to a Game.
type Option func(*Game)

// WithCountdownStart sets the value a countdown starts from.
func WithCountdownStart(n int) Option {
	return func(g *Game) {
		if n >= 0 {
			g.countdownStart = n
		}
	}
}

// WithIDGenerator overrides how player and team ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(g *Game) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// WithQuestionSet preloads the active question set.
func WithQuestionSet(name string, questions []model.Question) Option {
	return func(g *Game) {
		g.name = name
		g.questions = append([]model.Question(nil), questions...)
	}
}
