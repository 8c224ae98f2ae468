package game

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every command error below, so callers can tell
// a refused command from an infrastructure failure with one errors.Is.
var ErrRejected = errors.New("command rejected")

// Sentinel errors returned by game commands. A command that fails leaves
// the game unchanged.
var (
	ErrInvalidPhase    = rejected("command not valid in current phase")
	ErrNoQuestion      = rejected("no active question")
	ErrInvalidQuestion = rejected("invalid question")
	ErrInvalidName     = rejected("player name is empty")
	ErrUnknownPlayer   = rejected("unknown player")
	ErrNotApproved     = rejected("player not approved")
	ErrDuplicateBuzz   = rejected("player already buzzed for this question")
	ErrNotHead         = rejected("player is not at the head of the buzz queue")
	ErrNoBuzz          = rejected("player has no buzz for this question")
	ErrNotRuled        = rejected("buzz has not been ruled yet")
	ErrAlreadyCorrect  = rejected("another buzz is already correct")
	ErrInvalidStatus   = rejected("invalid target status")
	ErrInvalidSnapshot = rejected("snapshot has no valid session")
)

func rejected(msg string) error {
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}
