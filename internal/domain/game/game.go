// Package game implements the host-owned session: the phase machine, the
// per-question buzz queue and the roster with its score ledger.
//
// Game is pure and synchronous. It performs no I/O and is not safe for
// concurrent use; the sync engine serializes every call.
package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/quizlive/internal/domain/model"
)

// Game holds all host-authoritative state.
type Game struct {
	session   model.Session
	name      string
	questions []model.Question
	players   []model.Player
	teams     []model.Team
	queue     []model.BuzzRecord

	countdownStart int
	newID          func() string
}

// New creates a game in LOBBY with an empty roster.
func New(opts ...Option) *Game {
	g := &Game{
		countdownStart: model.DefaultCountdown,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.session = g.initialSession()
	return g
}

func (g *Game) initialSession() model.Session {
	s := model.NewSession()
	s.CountdownValue = g.countdownStart
	return s
}

// Session returns a copy of the session record.
func (g *Game) Session() model.Session {
	s := g.session
	if s.BuzzerOpenedAt != nil {
		at := *s.BuzzerOpenedAt
		s.BuzzerOpenedAt = &at
	}
	return s
}

// Phase returns the current phase.
func (g *Game) Phase() model.Phase { return g.session.Phase }

// Name returns the active game name.
func (g *Game) Name() string { return g.name }

// Questions returns a copy of the active question set.
func (g *Game) Questions() []model.Question {
	return append([]model.Question(nil), g.questions...)
}

// CurrentQuestion returns the question the session points at.
func (g *Game) CurrentQuestion() (model.Question, bool) {
	i := g.session.ActiveQuestionIndex
	if i < 0 || i >= len(g.questions) {
		return model.Question{}, false
	}
	return g.questions[i], true
}

// Load replaces the active question set and returns the session to LOBBY.
// The roster and team scores survive.
func (g *Game) Load(name string, questions []model.Question) error {
	for i, q := range questions {
		if q.Points <= 0 {
			return fmt.Errorf("%w: question %d (%q) has %d points", ErrInvalidQuestion, i, q.ID, q.Points)
		}
	}
	g.name = name
	g.questions = append([]model.Question(nil), questions...)
	g.session = g.initialSession()
	g.clearQueue()
	return nil
}

// Reset zeroes every score and statistic and returns the session to LOBBY.
// Players and teams keep their identities.
func (g *Game) Reset() {
	for i := range g.players {
		g.players[i].Score = 0
		g.players[i].Stats = model.Stats{}
	}
	for i := range g.teams {
		g.teams[i].Score = 0
	}
	g.session = g.initialSession()
	g.clearQueue()
}

// Snapshot returns a deep copy of the publishable state. Version and
// PublishedAt are left for the publisher to stamp.
func (g *Game) Snapshot() model.Snapshot {
	session := g.Session()
	players := make([]model.Player, len(g.players))
	for i, p := range g.players {
		players[i] = clonePlayer(p)
	}
	return model.Snapshot{
		Session:        &session,
		ActiveGameName: g.name,
		Players:        players,
		Teams:          append([]model.Team{}, g.teams...),
		Questions:      append([]model.Question{}, g.questions...),
		BuzzQueue:      append([]model.BuzzRecord{}, g.queue...),
	}
}

// Restore replaces all state with a previously published snapshot, letting
// a restarted host resume where it left off.
func (g *Game) Restore(snap model.Snapshot) error {
	if !snap.Valid() {
		return ErrInvalidSnapshot
	}
	g.session = *snap.Session
	if snap.Session.BuzzerOpenedAt != nil {
		at := *snap.Session.BuzzerOpenedAt
		g.session.BuzzerOpenedAt = &at
	}
	g.name = snap.ActiveGameName
	g.questions = append([]model.Question(nil), snap.Questions...)
	g.players = make([]model.Player, len(snap.Players))
	for i, p := range snap.Players {
		g.players[i] = clonePlayer(p)
	}
	g.teams = append([]model.Team(nil), snap.Teams...)
	g.queue = append([]model.BuzzRecord(nil), snap.BuzzQueue...)
	return nil
}

func clonePlayer(p model.Player) model.Player {
	if p.Stats.BestReactionMs != nil {
		best := *p.Stats.BestReactionMs
		p.Stats.BestReactionMs = &best
	}
	return p
}
