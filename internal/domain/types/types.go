// Package types contains wire types shared by the endpoint and its clients.
package types

// Ack is the acknowledgement returned by write actions. ID is set when the
// action assigned one, as pushIntent does.
type Ack struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PublicSettings is everything a participant may know about the session.
type PublicSettings struct {
	JoinURL string `json:"joinUrl"`
}

// LoginRequest is the body of the login action.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResult answers a login. Token and JoinURL are empty on failure.
type LoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	JoinURL string `json:"joinUrl,omitempty"`
}

// UpdateSettingsRequest is the body of the updateSettings action.
type UpdateSettingsRequest struct {
	Token       string `json:"token"`
	JoinURL     string `json:"joinUrl"`
	NewPassword string `json:"newPassword,omitempty"`
}

// Entry is a standings row for a player.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	TeamID   string  `json:"team_id,omitempty"`
	Score    int     `json:"score"`
	Correct  int     `json:"correct"`
	Attempts int     `json:"attempts"`
	Accuracy float64 `json:"accuracy"`
}

// TeamEntry is a standings row for a team.
type TeamEntry struct {
	Rank    int    `json:"rank"`
	TeamID  string `json:"team_id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Members int    `json:"members"`
}

// Reaction names the player holding the fastest adjudicated buzz.
type Reaction struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	ReactionMs int64  `json:"reaction_ms"`
}

// Podium summarizes a finished (or running) game.
type Podium struct {
	GameName    string      `json:"game_name"`
	Phase       string      `json:"phase"`
	WinningTeam *TeamEntry  `json:"winning_team,omitempty"`
	TopPlayers  []Entry     `json:"top_players"`
	Fastest     *Reaction   `json:"fastest,omitempty"`
	Teams       []TeamEntry `json:"teams"`
}

// Host control commands accepted at POST /host/{command}.
const (
	CmdStart       = "start"
	CmdAdvance     = "advance"
	CmdOpenBuzzers = "open-buzzers"
	CmdSkip        = "skip"
	CmdReveal      = "reveal"
	CmdResolve     = "resolve"
	CmdRectify     = "rectify"
	CmdApprove     = "approve"
	CmdEvict       = "evict"
	CmdAddPlayer   = "add-player"
	CmdReset       = "reset"
	CmdLoad        = "load"
)

// HostCommands lists every host control command.
var HostCommands = []string{
	CmdStart, CmdAdvance, CmdOpenBuzzers, CmdSkip, CmdReveal, CmdResolve,
	CmdRectify, CmdApprove, CmdEvict, CmdAddPlayer, CmdReset, CmdLoad,
}

// HostCommand is a host control request. Command comes from the path; each
// command reads only the body fields it needs.
type HostCommand struct {
	Command  string `json:"-"`
	PlayerID string `json:"playerId,omitempty"`
	Correct  bool   `json:"correct,omitempty"`
	Status   string `json:"status,omitempty"`
	Name     string `json:"name,omitempty"`
	TeamName string `json:"teamName,omitempty"`
	SetID    string `json:"setId,omitempty"`
}
