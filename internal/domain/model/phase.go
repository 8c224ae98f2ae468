package model

import "fmt"

// Phase is the top-level stage of a session.
type Phase uint8

// Phases in the order a question normally moves through them.
const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhaseQuestionDisplay
	PhaseBuzzerOpen
	PhaseAdjudication
	PhaseAnswerReveal
	PhaseLeaderboard
	PhaseFinalStats
)

var phaseNames = [...]string{
	PhaseLobby:           "LOBBY",
	PhaseCountdown:       "COUNTDOWN",
	PhaseQuestionDisplay: "QUESTION_DISPLAY",
	PhaseBuzzerOpen:      "BUZZER_OPEN",
	PhaseAdjudication:    "ADJUDICATION",
	PhaseAnswerReveal:    "ANSWER_REVEAL",
	PhaseLeaderboard:     "LEADERBOARD",
	PhaseFinalStats:      "FINAL_STATS",
}

// Phases lists every phase.
func Phases() []Phase {
	out := make([]Phase, len(phaseNames))
	for i := range phaseNames {
		out[i] = Phase(i)
	}
	return out
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool { return int(p) < len(phaseNames) }

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the wire name.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPhase, uint8(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText decodes a wire name; unknown names are rejected.
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase maps a wire name to a Phase.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// BuzzStatus is the ruling on a buzz.
type BuzzStatus uint8

// Buzz statuses.
const (
	BuzzPending BuzzStatus = iota
	BuzzCorrect
	BuzzWrong
)

var buzzStatusNames = [...]string{
	BuzzPending: "PENDING",
	BuzzCorrect: "CORRECT",
	BuzzWrong:   "WRONG",
}

// Valid reports whether s is a known status.
func (s BuzzStatus) Valid() bool { return int(s) < len(buzzStatusNames) }

func (s BuzzStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("BuzzStatus(%d)", uint8(s))
	}
	return buzzStatusNames[s]
}

// MarshalText encodes the wire name.
func (s BuzzStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(buzzStatusNames[s]), nil
}

// UnmarshalText decodes a wire name; unknown names are rejected.
func (s *BuzzStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseBuzzStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseBuzzStatus maps a wire name to a BuzzStatus.
func ParseBuzzStatus(v string) (BuzzStatus, error) {
	for i, name := range buzzStatusNames {
		if name == v {
			return BuzzStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, v)
}
