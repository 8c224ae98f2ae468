package participant

import "time"

// Config holds configuration for a simulated crowd.
type Config struct {
	BaseURL     string        // Base URL of the relay
	Players     int           // Number of simulated players
	Teams       int           // Number of teams players are spread over; 0 means no teams
	BuzzChance  float64       // Probability a player buzzes on an open question
	MaxReaction time.Duration // Upper bound of the random delay before a buzz
	Interval    time.Duration // How often each player looks at its mirror
	Duration    time.Duration // How long the crowd stays; 0 means until cancelled
	Timeout     time.Duration // HTTP request timeout
	TopN        int           // Standings rows logged at the end
	Seed        uint64        // Seed for names and buzz decisions
	Verbose     bool          // Log every buzz
}

// Stats holds crowd statistics.
type Stats struct {
	Joined     int64
	Confirmed  int64
	Kicked     int64
	Buzzes     int64
	BuzzErrors int64
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
