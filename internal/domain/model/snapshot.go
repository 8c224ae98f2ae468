package model

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the publishable projection of host state. Clients replace
// their mirror with it wholesale on every successful poll.
type Snapshot struct {
	Session        *Session     `json:"gameState"`
	ActiveGameName string       `json:"activeGameName"`
	Players        []Player     `json:"players"`
	Teams          []Team       `json:"teams"`
	Questions      []Question   `json:"questions"`
	BuzzQueue      []BuzzRecord `json:"buzzQueue"`
	Version        int64        `json:"version,omitempty"`
	PublishedAt    Millis       `json:"publishedAt,omitempty"`
}

// Valid reports whether s carries a well-formed session. An empty object
// or a snapshot with an out-of-range question index is treated as absent.
func (s *Snapshot) Valid() bool {
	if s == nil || s.Session == nil || !s.Session.Phase.Valid() {
		return false
	}
	idx := s.Session.ActiveQuestionIndex
	return idx == -1 || (idx >= 0 && idx < len(s.Questions))
}

// Player returns the player with id, if present.
func (s *Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// CurrentQuestion returns the active question, if the index points at one.
func (s *Snapshot) CurrentQuestion() (Question, bool) {
	if s.Session == nil {
		return Question{}, false
	}
	i := s.Session.ActiveQuestionIndex
	if i < 0 || i >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[i], true
}

// DecodeSnapshot parses raw store bytes. Empty input, "{}" and malformed
// sessions all yield ok=false with a nil error; only broken JSON is an error.
func DecodeSnapshot(raw []byte) (snap Snapshot, ok bool, err error) {
	if len(raw) == 0 {
		return Snapshot{}, false, nil
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, snap.Valid(), nil
}
