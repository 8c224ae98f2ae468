package game

import (
	"fmt"

	"github.com/okian/quizlive/internal/domain/model"
)

// Ruling describes the outcome of a Resolve or Rectify call.
type Ruling struct {
	PlayerID   string
	Status     model.BuzzStatus
	Points     int
	ReactionMs *int64
}

// BuzzQueue returns a copy of the current question's buzz records in
// arrival order.
func (g *Game) BuzzQueue() []model.BuzzRecord {
	return append([]model.BuzzRecord(nil), g.queue...)
}

// Head returns the earliest PENDING record, if any.
func (g *Game) Head() (model.BuzzRecord, bool) {
	i := g.headIndex()
	if i < 0 {
		return model.BuzzRecord{}, false
	}
	return g.queue[i], true
}

func (g *Game) clearQueue() { g.queue = nil }

// headIndex returns the index of the minimal-order PENDING record, or -1.
func (g *Game) headIndex() int {
	head := -1
	for i, r := range g.queue {
		if r.Status != model.BuzzPending {
			continue
		}
		if head < 0 || r.Order < g.queue[head].Order {
			head = i
		}
	}
	return head
}

func (g *Game) recordIndex(playerID string) int {
	for i, r := range g.queue {
		if r.PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (g *Game) hasStatus(status model.BuzzStatus, except string) bool {
	for _, r := range g.queue {
		if r.PlayerID != except && r.Status == status {
			return true
		}
	}
	return false
}

func (g *Game) nextOrder() int {
	n := 0
	for _, r := range g.queue {
		if r.Order > n {
			n = r.Order
		}
	}
	return n + 1
}

// SubmitBuzz appends a PENDING record for playerID stamped at. Buzzes are
// accepted while BUZZER_OPEN and while earlier buzzes await rulings, so a
// burst drained in one cycle queues in arrival order. A buzz arriving in
// BUZZER_OPEN moves the session to ADJUDICATION.
func (g *Game) SubmitBuzz(playerID string, at model.Millis) (model.BuzzRecord, error) {
	if err := g.require(model.PhaseBuzzerOpen, model.PhaseAdjudication); err != nil {
		return model.BuzzRecord{}, err
	}
	p := g.playerIndex(playerID)
	if p < 0 {
		return model.BuzzRecord{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if !g.players[p].Approved {
		return model.BuzzRecord{}, fmt.Errorf("%w: %s", ErrNotApproved, playerID)
	}
	if g.recordIndex(playerID) >= 0 {
		return model.BuzzRecord{}, fmt.Errorf("%w: %s", ErrDuplicateBuzz, playerID)
	}

	rec := model.BuzzRecord{
		PlayerID:  playerID,
		Timestamp: at,
		Order:     g.nextOrder(),
		Status:    model.BuzzPending,
	}
	g.queue = append(g.queue, rec)
	if g.session.Phase == model.PhaseBuzzerOpen {
		g.session.Phase = model.PhaseAdjudication
	}
	return rec, nil
}

// Resolve rules on the head of the queue. Any other player is rejected
// with ErrNotHead.
func (g *Game) Resolve(playerID string, correct bool) (Ruling, error) {
	if err := g.require(model.PhaseAdjudication); err != nil {
		return Ruling{}, err
	}
	head := g.headIndex()
	if head < 0 || g.queue[head].PlayerID != playerID {
		return Ruling{}, fmt.Errorf("%w: %s", ErrNotHead, playerID)
	}
	q, ok := g.CurrentQuestion()
	if !ok {
		return Ruling{}, ErrNoQuestion
	}

	rec := &g.queue[head]
	ruling := Ruling{PlayerID: playerID}
	if p := g.playerIndex(playerID); p >= 0 {
		player := &g.players[p]
		player.Stats.TotalAttempts++
		if reaction, ok := g.reaction(rec.Timestamp); ok {
			ruling.ReactionMs = &reaction
			if best := player.Stats.BestReactionMs; best == nil || reaction < *best {
				player.Stats.BestReactionMs = &reaction
			}
		}
	}

	if correct {
		rec.Status = model.BuzzCorrect
		ruling.Points = q.Points
		g.credit(playerID, q.Points)
		g.session.Phase = model.PhaseAnswerReveal
	} else {
		rec.Status = model.BuzzWrong
		if g.headIndex() < 0 {
			g.session.Phase = model.PhaseBuzzerOpen
		}
	}
	ruling.Status = rec.Status
	return ruling, nil
}

func (g *Game) reaction(at model.Millis) (int64, bool) {
	opened := g.session.BuzzerOpenedAt
	if opened == nil {
		return 0, false
	}
	ms := int64(at - *opened)
	if ms < 0 {
		ms = 0
	}
	return ms, true
}

// Rectify overturns an earlier ruling for the current question. Setting the
// status it already has is a no-op.
func (g *Game) Rectify(playerID string, status model.BuzzStatus) (Ruling, error) {
	if status != model.BuzzCorrect && status != model.BuzzWrong {
		return Ruling{}, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if err := g.require(model.PhaseBuzzerOpen, model.PhaseAdjudication, model.PhaseAnswerReveal); err != nil {
		return Ruling{}, err
	}
	i := g.recordIndex(playerID)
	if i < 0 {
		return Ruling{}, fmt.Errorf("%w: %s", ErrNoBuzz, playerID)
	}
	rec := &g.queue[i]
	if rec.Status == model.BuzzPending {
		return Ruling{}, fmt.Errorf("%w: %s", ErrNotRuled, playerID)
	}
	if rec.Status == status {
		return Ruling{PlayerID: playerID, Status: status}, nil
	}
	q, ok := g.CurrentQuestion()
	if !ok {
		return Ruling{}, ErrNoQuestion
	}

	ruling := Ruling{PlayerID: playerID, Status: status}
	switch status {
	case model.BuzzCorrect:
		if g.hasStatus(model.BuzzCorrect, playerID) {
			return Ruling{}, fmt.Errorf("%w: %s", ErrAlreadyCorrect, playerID)
		}
		rec.Status = model.BuzzCorrect
		ruling.Points = q.Points
		g.credit(playerID, q.Points)
		g.session.Phase = model.PhaseAnswerReveal
	case model.BuzzWrong:
		rec.Status = model.BuzzWrong
		ruling.Points = -q.Points
		g.debit(playerID, q.Points)
		if g.hasStatus(model.BuzzPending, playerID) {
			g.session.Phase = model.PhaseAdjudication
		} else {
			g.session.Phase = model.PhaseBuzzerOpen
		}
	}
	return ruling, nil
}

func (g *Game) credit(playerID string, points int) {
	p := g.playerIndex(playerID)
	if p < 0 {
		return
	}
	g.players[p].Score += points
	g.players[p].Stats.CorrectCount++
	g.addTeamScore(g.players[p].TeamID, points)
}

func (g *Game) debit(playerID string, points int) {
	p := g.playerIndex(playerID)
	if p < 0 {
		return
	}
	g.players[p].Score -= points
	if g.players[p].Stats.CorrectCount > 0 {
		g.players[p].Stats.CorrectCount--
	}
	g.addTeamScore(g.players[p].TeamID, -points)
}
