package repository

import "errors"

// ErrEmptyState is returned when asked to store an empty snapshot.
var ErrEmptyState = errors.New("refusing to store an empty state")
