// Package model contains the session records shared by the host, the relay
// and every client mirror. JSON names follow the published snapshot format.
package model

import (
	"errors"
	"time"
)

// Sentinel errors for decoding wire values.
var (
	ErrUnknownPhase      = errors.New("unknown phase")
	ErrUnknownStatus     = errors.New("unknown buzz status")
	ErrUnknownIntentType = errors.New("unknown intent type")
)

// DefaultCountdown is the value a countdown starts from.
const DefaultCountdown = 3

// Millis is a Unix timestamp in milliseconds.
type Millis int64

// MillisOf converts t to Millis.
func MillisOf(t time.Time) Millis { return Millis(t.UnixMilli()) }

// Time converts m back to a time.Time.
func (m Millis) Time() time.Time { return time.UnixMilli(int64(m)) }

// Session is the host-owned singleton driving the phase machine.
type Session struct {
	Phase               Phase   `json:"phase"`
	ActiveQuestionIndex int     `json:"currentQuestionIndex"`
	CountdownValue      int     `json:"countdownValue"`
	BuzzerOpenedAt      *Millis `json:"buzzerOpenTimestamp"`
}

// NewSession returns a session in its initial LOBBY state.
func NewSession() Session {
	return Session{
		Phase:               PhaseLobby,
		ActiveQuestionIndex: -1,
		CountdownValue:      DefaultCountdown,
	}
}

// Stats are per-player adjudication statistics.
type Stats struct {
	CorrectCount   int    `json:"correctAnswers"`
	TotalAttempts  int    `json:"totalBuzzes"`
	BestReactionMs *int64 `json:"bestReactionTime"`
}

// Player is a roster member.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TeamID   string `json:"teamId,omitempty"`
	Score    int    `json:"score"`
	Approved bool   `json:"isApproved"`
	Stats    Stats  `json:"stats"`
}

// Team groups players; Name is the case-insensitive de-duplication key.
type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Question is an immutable entry of the active question set.
type Question struct {
	ID         string  `json:"id" yaml:"id"`
	Text       string  `json:"text" yaml:"text"`
	Answer     string  `json:"answer" yaml:"answer"`
	Points     int     `json:"points" yaml:"points"`
	Category   string  `json:"category,omitempty" yaml:"category"`
	MediaURL   string  `json:"mediaUrl,omitempty" yaml:"media_url"`
	MediaType  string  `json:"mediaType,omitempty" yaml:"media_type"`
	AudioURL   string  `json:"audioUrl,omitempty" yaml:"audio_url"`
	AudioStart float64 `json:"audioStart,omitempty" yaml:"audio_start"`
	AudioEnd   float64 `json:"audioEnd,omitempty" yaml:"audio_end"`
}

// BuzzRecord is one buzz attempt for the current question.
type BuzzRecord struct {
	PlayerID  string     `json:"playerId"`
	Timestamp Millis     `json:"timestamp"`
	Order     int        `json:"order"`
	Status    BuzzStatus `json:"status"`
}
