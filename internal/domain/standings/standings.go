// Package standings projects a snapshot into leaderboard and podium rows.
// Ranking is by score descending, then name ascending; equal scores share
// a rank and the next rank skips accordingly (1, 1, 3).
package standings

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/quizlive/internal/domain/model"
	"github.com/okian/quizlive/internal/domain/types"
)

// Players ranks every player in the snapshot.
func Players(snap model.Snapshot) []types.Entry {
	out := make([]types.Entry, 0, len(snap.Players))
	for _, p := range snap.Players {
		out = append(out, types.Entry{
			PlayerID: p.ID,
			Name:     p.Name,
			TeamID:   p.TeamID,
			Score:    p.Score,
			Correct:  p.Stats.CorrectCount,
			Attempts: p.Stats.TotalAttempts,
			Accuracy: accuracy(p.Stats),
		})
	}
	slices.SortStableFunc(out, func(a, b types.Entry) int {
		return byScoreThenName(a.Score, b.Score, a.Name, b.Name)
	})
	for i := range out {
		out[i].Rank = rankAt(i, out[i].Score, func(j int) int { return out[j].Score }, func(j int) int { return out[j].Rank })
	}
	return out
}

// Teams ranks every team and counts its current members.
func Teams(snap model.Snapshot) []types.TeamEntry {
	members := make(map[string]int, len(snap.Teams))
	for _, p := range snap.Players {
		if p.TeamID != "" {
			members[p.TeamID]++
		}
	}
	out := make([]types.TeamEntry, 0, len(snap.Teams))
	for _, t := range snap.Teams {
		out = append(out, types.TeamEntry{
			TeamID:  t.ID,
			Name:    t.Name,
			Score:   t.Score,
			Members: members[t.ID],
		})
	}
	slices.SortStableFunc(out, func(a, b types.TeamEntry) int {
		return byScoreThenName(a.Score, b.Score, a.Name, b.Name)
	})
	for i := range out {
		out[i].Rank = rankAt(i, out[i].Score, func(j int) int { return out[j].Score }, func(j int) int { return out[j].Rank })
	}
	return out
}

// Rank returns the standings row of one player.
func Rank(snap model.Snapshot, playerID string) (types.Entry, bool) {
	for _, e := range Players(snap) {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return types.Entry{}, false
}

// Top returns at most n leading players. n <= 0 returns all of them.
func Top(snap model.Snapshot, n int) []types.Entry {
	all := Players(snap)
	if n > 0 && n < len(all) {
		return all[:n]
	}
	return all
}

// Final builds the podium view: winning team, top players and the fastest
// adjudicated buzz of the game.
func Final(snap model.Snapshot, topN int) types.Podium {
	podium := types.Podium{
		GameName:   snap.ActiveGameName,
		TopPlayers: Top(snap, topN),
		Teams:      Teams(snap),
	}
	if snap.Session != nil {
		podium.Phase = snap.Session.Phase.String()
	}
	if len(podium.Teams) > 0 {
		winner := podium.Teams[0]
		podium.WinningTeam = &winner
	}
	for _, p := range snap.Players {
		best := p.Stats.BestReactionMs
		if best == nil {
			continue
		}
		if podium.Fastest == nil || *best < podium.Fastest.ReactionMs {
			podium.Fastest = &types.Reaction{PlayerID: p.ID, Name: p.Name, ReactionMs: *best}
		}
	}
	return podium
}

func accuracy(s model.Stats) float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.TotalAttempts)
}

func byScoreThenName(scoreA, scoreB int, nameA, nameB string) int {
	if c := cmp.Compare(scoreB, scoreA); c != 0 {
		return c
	}
	return cmp.Compare(strings.ToLower(nameA), strings.ToLower(nameB))
}

// rankAt assigns competition ranks over an already sorted slice.
func rankAt(i, score int, scoreOf, rankOf func(int) int) int {
	if i > 0 && scoreOf(i-1) == score {
		return rankOf(i - 1)
	}
	return i + 1
}
