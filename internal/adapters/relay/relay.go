// Package relay defines the shared-store protocol that host and clients
// speak: read and overwrite the snapshot, push and drain intents.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/quizlive/internal/adapters/mq/queue"
	"github.com/okian/quizlive/internal/adapters/repository"
	"github.com/okian/quizlive/internal/domain/model"
)

// ErrInvalidState is returned when a pushed snapshot is not a JSON object.
var ErrInvalidState = errors.New("state is not a JSON object")

// Relay is the boundary every sync engine talks to. Calls are independent
// and non-transactional except DrainIntents, which pairs retrieval with
// clearing.
type Relay interface {
	// GetState returns the raw published snapshot, or nil if none exists.
	GetState(ctx context.Context) ([]byte, error)

	// DrainIntents returns and removes all pending intents in arrival order.
	DrainIntents(ctx context.Context) ([]model.Intent, error)

	// PushState overwrites the published snapshot.
	PushState(ctx context.Context, state []byte) error

	// PushIntent appends an intent for the host.
	PushIntent(ctx context.Context, in model.Intent) (model.Intent, error)
}

// Local is an in-process Relay over a Store and an intent Queue.
type Local struct {
	store   repository.Store
	intents queue.Queue
}

// NewLocal creates a Relay backed directly by store and intents.
func NewLocal(store repository.Store, intents queue.Queue) *Local {
	return &Local{store: store, intents: intents}
}

func (l *Local) GetState(ctx context.Context) ([]byte, error) {
	raw, err := l.store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return raw, nil
}

func (l *Local) DrainIntents(ctx context.Context) ([]model.Intent, error) {
	out, err := l.intents.Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("drain intents: %w", err)
	}
	return out, nil
}

func (l *Local) PushState(ctx context.Context, state []byte) error {
	if err := ValidateState(state); err != nil {
		return err
	}
	if err := l.store.SaveState(ctx, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (l *Local) PushIntent(ctx context.Context, in model.Intent) (model.Intent, error) {
	out, err := l.intents.Push(ctx, in)
	if err != nil {
		return model.Intent{}, fmt.Errorf("push intent: %w", err)
	}
	return out, nil
}

// ValidateState checks that state is a JSON object. Its content is not
// interpreted; a malformed session is the reader's concern.
func ValidateState(state []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(state, &obj); err != nil || obj == nil {
		return ErrInvalidState
	}
	return nil
}
