package models

import "time"

// Artifact is one generated visual attached to a match or to the finale.
type Artifact struct {
	Kind string `json:"kind"` // "face_off", "action", "victory"
	Key  string `json:"key,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Match records one resolved pairing. Immutable once appended to a
// tournament's history.
type Match struct {
	ID        string     `json:"id"`
	Round     int        `json:"round"`
	WinnerID  string     `json:"winner_id"`
	LoserID   string     `json:"loser_id"`
	Narrative string     `json:"narrative"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Fallback  bool       `json:"fallback,omitempty"` // resolution was forced after a fatal match error
	PlayedAt  time.Time  `json:"played_at"`
}

// Pairing is a scheduled bout between two alive contestants.
type Pairing struct {
	Round int
	A     *Contestant
	B     *Contestant
}
