package queue

import "errors"

// Sentinel errors for intent queues.
var (
	ErrFull          = errors.New("intent queue full")
	ErrClosed        = errors.New("intent queue closed")
	ErrInvalidIntent = errors.New("invalid intent")
)
