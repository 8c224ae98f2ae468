package game

import (
	"fmt"
	"strings"

	"github.com/okian/quizlive/internal/domain/model"
)

// Players returns a copy of the roster in join order.
func (g *Game) Players() []model.Player {
	out := make([]model.Player, len(g.players))
	for i, p := range g.players {
		out[i] = clonePlayer(p)
	}
	return out
}

// Teams returns a copy of the teams in creation order.
func (g *Game) Teams() []model.Team {
	return append([]model.Team(nil), g.teams...)
}

// Player looks up a player by id.
func (g *Game) Player(id string) (model.Player, bool) {
	i := g.playerIndex(id)
	if i < 0 {
		return model.Player{}, false
	}
	return clonePlayer(g.players[i]), true
}

func (g *Game) playerIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range g.players {
		if g.players[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *Game) teamByName(name string) int {
	for i := range g.teams {
		if strings.EqualFold(g.teams[i].Name, name) {
			return i
		}
	}
	return -1
}

func (g *Game) addTeamScore(teamID string, delta int) {
	if teamID == "" {
		return
	}
	for i := range g.teams {
		if g.teams[i].ID == teamID {
			g.teams[i].Score += delta
			return
		}
	}
}

// Join adds a player, creating the named team on first use. An empty id
// gets a generated one. Replays are idempotent: a known id, or an exact
// (name, team) match, returns the existing player unchanged with
// created=false.
func (g *Game) Join(id, name, teamName string, approved bool) (player model.Player, created bool, err error) {
	name = strings.TrimSpace(name)
	teamName = strings.TrimSpace(teamName)
	if name == "" {
		return model.Player{}, false, ErrInvalidName
	}
	if i := g.playerIndex(id); i >= 0 {
		return clonePlayer(g.players[i]), false, nil
	}

	teamID := ""
	team := -1
	if teamName != "" {
		team = g.teamByName(teamName)
		if team >= 0 {
			teamID = g.teams[team].ID
		}
	}
	// A team that does not exist yet has no members to match.
	if teamName == "" || team >= 0 {
		for i := range g.players {
			if g.players[i].Name == name && g.players[i].TeamID == teamID {
				return clonePlayer(g.players[i]), false, nil
			}
		}
	}

	if teamName != "" && team < 0 {
		g.teams = append(g.teams, model.Team{ID: g.newID(), Name: teamName})
		teamID = g.teams[len(g.teams)-1].ID
	}
	if id == "" {
		id = g.newID()
	}
	p := model.Player{ID: id, Name: name, TeamID: teamID, Approved: approved}
	g.players = append(g.players, p)
	return clonePlayer(p), true, nil
}

// Approve lets a player buzz. Approving twice is harmless.
func (g *Game) Approve(id string) error {
	i := g.playerIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	g.players[i].Approved = true
	return nil
}

// Leave removes a player. Their team and its score are untouched, and any
// buzz record they left behind stays in the queue.
func (g *Game) Leave(id string) error {
	i := g.playerIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	g.players = append(g.players[:i], g.players[i+1:]...)
	return nil
}
