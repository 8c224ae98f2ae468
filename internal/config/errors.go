package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the config file, env file or
	// environment.
	ErrLoadConfig = errors.New("load config failed")
)
