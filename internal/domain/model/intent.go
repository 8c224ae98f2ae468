package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// IntentType tags a participant action.
type IntentType string

// Intent types accepted by the host.
const (
	IntentJoin  IntentType = "JOIN"
	IntentBuzz  IntentType = "BUZZ"
	IntentLeave IntentType = "LEAVE"
)

// Valid reports whether t is one of the known intent types.
func (t IntentType) Valid() bool {
	switch t {
	case IntentJoin, IntentBuzz, IntentLeave:
		return true
	}
	return false
}

// Intent is a not-yet-applied participant action. ID and CreatedAt are
// assigned by the channel when the intent is pushed.
type Intent struct {
	ID        string          `json:"id,omitempty"`
	Type      IntentType      `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// JoinPayload is the payload of a JOIN intent. ID is chosen by the client.
type JoinPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TeamName string `json:"teamName"`
}

// PlayerPayload is the payload of BUZZ and LEAVE intents.
type PlayerPayload struct {
	PlayerID string `json:"playerId"`
}

// NewIntent marshals payload into an intent of type t.
func NewIntent(t IntentType, payload any) (Intent, error) {
	if !t.Valid() {
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntentType, t)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Intent{Type: t, Payload: raw}, nil
}

// DecodeJoin decodes a JOIN payload.
func (i Intent) DecodeJoin() (JoinPayload, error) {
	var p JoinPayload
	if i.Type != IntentJoin {
		return p, fmt.Errorf("%w: want %s, got %q", ErrUnknownIntentType, IntentJoin, i.Type)
	}
	if err := json.Unmarshal(i.Payload, &p); err != nil {
		return p, fmt.Errorf("decode join payload: %w", err)
	}
	return p, nil
}

// DecodePlayer decodes a BUZZ or LEAVE payload.
func (i Intent) DecodePlayer() (PlayerPayload, error) {
	var p PlayerPayload
	if i.Type != IntentBuzz && i.Type != IntentLeave {
		return p, fmt.Errorf("%w: %q has no player payload", ErrUnknownIntentType, i.Type)
	}
	if err := json.Unmarshal(i.Payload, &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", i.Type, err)
	}
	return p, nil
}
