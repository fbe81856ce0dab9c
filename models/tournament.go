package models

import (
	"sort"
	"time"
)

// TournamentStatus advances forward only: waiting -> in_progress -> completed.
type TournamentStatus string

const (
	TournamentWaiting    TournamentStatus = "waiting"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
)

// Settings carries the creative direction for a battle, chosen through the
// setup wizard before the lobby opens.
type Settings struct {
	Arena string `json:"arena"`
	Genre string `json:"genre"`
	Style string `json:"style"`
	TeamA string `json:"team_a,omitempty"`
	TeamB string `json:"team_b,omitempty"`
}

// Tournament is the single mutable shared object for a running battle in a
// channel. Contestants is the source of truth for survivorship; the pending
// pairing queue held by the controller is always recomputed from the alive
// projection and never persisted here.
type Tournament struct {
	ID          string                 `json:"id"`
	ChannelID   string                 `json:"channel_id"`
	Settings    Settings               `json:"settings"`
	TeamMode    bool                   `json:"team_mode"`
	Round       int                    `json:"round"`
	Contestants map[string]*Contestant `json:"contestants"`
	History     []*Match               `json:"history"`
	Status      TournamentStatus       `json:"status"`
	WinnerID    string                 `json:"winner_id,omitempty"`
	FinaleURL   string                 `json:"finale_url,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	EndedAt     time.Time              `json:"ended_at,omitempty"`
}

// Alive returns the contestants still eligible for pairing, in stable
// registration order so that a seeded shuffle is reproducible.
func (t *Tournament) Alive() []*Contestant {
	out := make([]*Contestant, 0, len(t.Contestants))
	for _, c := range t.Contestants {
		if c.Status == ContestantAlive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out
}
