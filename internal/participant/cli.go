package participant

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/quizlive/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well.
func SetupLogging(logFile, format string) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	return logger.InitWith(w, format)
}

// ShowHelp prints usage information for the participant tool.
func ShowHelp() {
	os.Stdout.WriteString(`quizlive participant simulator
==============================

Joins simulated players to a running session through the relay and buzzes
for them whenever the host opens the buzzers.

Usage:
  go run ./cmd/participant [options]

Options:
  -url string
        Base URL of the relay (default "http://localhost:8080")
  -players int
        Number of simulated players (default 8)
  -teams int
        Number of teams to spread players over (default 2, 0 for none)
  -chance float
        Probability a player buzzes on an open question (default 0.6)
  -reaction duration
        Longest delay before a player buzzes (default 1.5s)
  -duration duration
        How long to stay in the session (default until interrupted)
  -seed uint
        Seed for names and decisions (default random)
  -log string
        Also write logs to this file
  -verbose
        Log every buzz
  -help
        Show this help message

Examples:
  # Fill the lobby of a local session
  go run ./cmd/participant -players 20 -teams 4

  # A short, deterministic run against another machine
  go run ./cmd/participant -url http://quiz.local:8080 -duration 5m -seed 42
`)
}
