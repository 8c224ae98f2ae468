package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrUnknownAction  = errors.New("unknown action")
	ErrUnknownCommand = errors.New("unknown host command")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNoState        = errors.New("no published state")
)
