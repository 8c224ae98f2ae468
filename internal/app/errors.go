package service

import (
	"errors"
	"fmt"

	"github.com/okian/quizlive/internal/domain/game"
)

var (
	// ErrNotHost is returned by host commands on a client.
	ErrNotHost = fmt.Errorf("%w: not the host", game.ErrRejected)
	// ErrNotJoined is returned by buzz and leave before a join.
	ErrNotJoined = fmt.Errorf("%w: no current player", game.ErrRejected)
	// ErrUnknownCommand is returned for a host command name Execute does not know.
	ErrUnknownCommand = errors.New("unknown host command")
	// ErrNoLibrary is returned by load when no library is configured.
	ErrNoLibrary = errors.New("no question library configured")
)
