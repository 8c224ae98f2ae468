package repository

// Option applies a configuration option to the Redis store.
type Option func(*RedisStore)

// WithStateKey sets the key holding the published snapshot.
func WithStateKey(key string) Option {
	return func(s *RedisStore) {
		if key != "" {
			s.stateKey = key
		}
	}
}

// WithSettingsKey sets the hash key holding the settings.
func WithSettingsKey(key string) Option {
	return func(s *RedisStore) {
		if key != "" {
			s.settingsKey = key
		}
	}
}
