// Package repository holds the shared snapshot record and the relay
// settings. The snapshot is stored as opaque bytes and overwritten
// wholesale; the last write wins.
package repository

import (
	"context"
	"sync"
)

// Settings are the relay's host-facing settings.
type Settings struct {
	JoinURL      string
	PasswordHash string
}

// Store provides whole-value access to the snapshot record and settings.
type Store interface {
	// LoadState returns the last published snapshot, or nil if none was
	// published yet.
	LoadState(ctx context.Context) ([]byte, error)

	// SaveState overwrites the snapshot record.
	SaveState(ctx context.Context, state []byte) error

	// LoadSettings returns the stored settings. Unset settings load as the
	// zero value.
	LoadSettings(ctx context.Context) (Settings, error)

	// SaveSettings overwrites the settings.
	SaveSettings(ctx context.Context, s Settings) error
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	state    []byte
	settings Settings
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadState returns a copy of the stored snapshot.
func (s *MemoryStore) LoadState(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, nil
	}
	return append([]byte(nil), s.state...), nil
}

// SaveState stores a copy of state.
func (s *MemoryStore) SaveState(_ context.Context, state []byte) error {
	if len(state) == 0 {
		return ErrEmptyState
	}
	s.mu.Lock()
	s.state = append([]byte(nil), state...)
	s.mu.Unlock()
	return nil
}

// LoadSettings returns the settings.
func (s *MemoryStore) LoadSettings(_ context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

// SaveSettings replaces the settings.
func (s *MemoryStore) SaveSettings(_ context.Context, settings Settings) error {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}
