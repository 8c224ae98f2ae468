package participant

import "time"

// Defaults applied to zero Config fields.
const (
	DefaultPlayers     = 8
	DefaultBuzzChance  = 0.6
	DefaultMaxReaction = 1500 * time.Millisecond
	DefaultInterval    = 100 * time.Millisecond
	DefaultTimeout     = 5 * time.Second
	DefaultTopN        = 10
	// SyncInterval is how often each simulated device polls the relay.
	SyncInterval = 300 * time.Millisecond
)
