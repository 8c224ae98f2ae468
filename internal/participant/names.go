package participant

import (
	"fmt"
	"math/rand/v2"
)

var (
	firstNames = []string{"Ada", "Grace", "Linus", "Barbara", "Ken", "Margaret", "Dennis", "Frances", "Alan", "Radia", "Edsger", "Hedy"}
	teamNames  = []string{"Red", "Blue", "Green", "Gold", "Violet", "Silver"}
)

// playerName returns a readable name that stays unique within a crowd.
func playerName(i int) string {
	name := firstNames[i%len(firstNames)]
	if round := i / len(firstNames); round > 0 {
		return fmt.Sprintf("%s %d", name, round+1)
	}
	return name
}

// teamName spreads players round-robin over n teams.
func teamName(i, n int) string {
	if n <= 0 {
		return ""
	}
	t := i % n
	if t < len(teamNames) {
		return teamNames[t]
	}
	return fmt.Sprintf("Team %d", t+1)
}

// reactionDelay draws a delay in [0, max).
func reactionDelay(rng *rand.Rand, max int64) int64 {
	if max <= 0 {
		return 0
	}
	return rng.Int64N(max)
}
