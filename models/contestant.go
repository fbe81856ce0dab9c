package models

import "time"

// ContestantStatus mirrors the lifecycle of a fighter inside a single tournament.
type ContestantStatus string

const (
	ContestantAlive      ContestantStatus = "alive"
	ContestantEliminated ContestantStatus = "eliminated"
	ContestantWinner     ContestantStatus = "winner"
)

// Team identifies one side of a team-mode bracket.
type Team string

const (
	TeamNone Team = ""
	TeamA    Team = "team_a"
	TeamB    Team = "team_b"
)

// Contestant is a registered fighter. It is created at registration time and
// never removed from the tournament; eliminated contestants stay in history.
// Status and Wins are mutated only by the match executor.
type Contestant struct {
	ID       string           `json:"id"`
	OwnerID  string           `json:"owner_id"`
	Name     string           `json:"name"`
	ImageURL string           `json:"image_url"`
	Wallet   string           `json:"wallet,omitempty"`
	Mint     string           `json:"mint,omitempty"`
	Traits   []Trait          `json:"traits,omitempty"`
	Team     Team             `json:"team,omitempty"`
	Status   ContestantStatus `json:"status"`
	Wins     int              `json:"wins"`

	RegisteredAt time.Time `json:"registered_at"`
}

// Trait is a single attribute fetched from an asset's off-chain metadata.
// Collected at registration, currently unused by winner selection.
type Trait struct {
	Type  string `json:"trait_type"`
	Value string `json:"value"`
}
