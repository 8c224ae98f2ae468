package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/quizlive/internal/participant"
	"github.com/okian/quizlive/pkg/logger"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the relay")
		players  = flag.Int("players", participant.DefaultPlayers, "Number of simulated players")
		teams    = flag.Int("teams", 2, "Number of teams to spread players over, 0 for none")
		chance   = flag.Float64("chance", participant.DefaultBuzzChance, "Probability a player buzzes on an open question")
		reaction = flag.Duration("reaction", participant.DefaultMaxReaction, "Longest delay before a player buzzes")
		duration = flag.Duration("duration", 0, "How long to stay in the session (0 until interrupted)")
		timeout  = flag.Duration("timeout", participant.DefaultTimeout, "HTTP request timeout")
		topN     = flag.Int("top", participant.DefaultTopN, "Standings rows logged at the end")
		seed     = flag.Uint64("seed", 0, "Seed for names and decisions (0 random)")
		logFile  = flag.String("log", "", "Also write logs to this file")
		format   = flag.String("log-format", "text", "Log format: text or json")
		verbose  = flag.Bool("verbose", false, "Log every buzz")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		participant.ShowHelp()
		return
	}

	if err := participant.SetupLogging(*logFile, *format); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	crowd := participant.NewCrowd(participant.Config{
		BaseURL:     *baseURL,
		Players:     *players,
		Teams:       *teams,
		BuzzChance:  *chance,
		MaxReaction: *reaction,
		Duration:    *duration,
		Timeout:     *timeout,
		TopN:        *topN,
		Seed:        *seed,
		Verbose:     *verbose,
	})
	if _, err := crowd.Run(ctx); err != nil {
		os.Stderr.WriteString("Crowd failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
