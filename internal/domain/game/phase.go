package game

import (
	"fmt"

	"github.com/okian/quizlive/internal/domain/model"
)

func (g *Game) require(phases ...model.Phase) error {
	for _, p := range phases {
		if g.session.Phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidPhase, g.session.Phase)
}

// Start begins the first question. An empty question set goes straight to
// FINAL_STATS.
func (g *Game) Start() error {
	if err := g.require(model.PhaseLobby); err != nil {
		return err
	}
	g.clearQueue()
	if len(g.questions) == 0 {
		g.session.Phase = model.PhaseFinalStats
		return nil
	}
	g.beginCountdown(0)
	return nil
}

// Advance moves from LEADERBOARD to the next question's countdown, or to
// FINAL_STATS after the last question. LOBBY must use Start instead.
func (g *Game) Advance() error {
	if err := g.require(model.PhaseLeaderboard); err != nil {
		return err
	}
	g.clearQueue()
	next := g.session.ActiveQuestionIndex + 1
	if next >= len(g.questions) {
		g.session.Phase = model.PhaseFinalStats
		return nil
	}
	g.beginCountdown(next)
	return nil
}

func (g *Game) beginCountdown(index int) {
	g.session = model.Session{
		Phase:               model.PhaseCountdown,
		ActiveQuestionIndex: index,
		CountdownValue:      g.countdownStart,
	}
}

// Tick counts the countdown down by one. At zero it shows the question and
// leaves the value at zero.
func (g *Game) Tick() error {
	if err := g.require(model.PhaseCountdown); err != nil {
		return err
	}
	if g.session.CountdownValue > 0 {
		g.session.CountdownValue--
		return nil
	}
	g.session.Phase = model.PhaseQuestionDisplay
	return nil
}

// OpenBuzzers lets players buzz, stamping the opening time.
func (g *Game) OpenBuzzers(now model.Millis) error {
	if err := g.require(model.PhaseQuestionDisplay); err != nil {
		return err
	}
	g.session.Phase = model.PhaseBuzzerOpen
	g.session.BuzzerOpenedAt = &now
	return nil
}

// Skip reveals the answer without a ruling and drops all buzzes.
func (g *Game) Skip() error {
	if err := g.require(model.PhaseQuestionDisplay, model.PhaseBuzzerOpen, model.PhaseAdjudication); err != nil {
		return err
	}
	g.session.Phase = model.PhaseAnswerReveal
	g.clearQueue()
	return nil
}

// AdvancePhase moves from ANSWER_REVEAL to LEADERBOARD.
func (g *Game) AdvancePhase() error {
	if err := g.require(model.PhaseAnswerReveal); err != nil {
		return err
	}
	g.session.Phase = model.PhaseLeaderboard
	return nil
}

// IsLastQuestion reports whether the next Advance ends the game.
func (g *Game) IsLastQuestion() bool {
	return g.session.ActiveQuestionIndex >= len(g.questions)-1
}
