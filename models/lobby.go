package models

import (
	"sync"
	"time"
)

// LobbyStatus represents the registration lifecycle of a lobby.
type LobbyStatus string

const (
	LobbyOpen       LobbyStatus = "open"
	LobbyInProgress LobbyStatus = "in_progress"
	LobbyCompleted  LobbyStatus = "completed"
)

// RegistrationMode controls how a contestant's visual reference is sourced.
type RegistrationMode string

const (
	ModeUpload       RegistrationMode = "upload"
	ModeProfileImage RegistrationMode = "profile_image"
	ModeWallet       RegistrationMode = "wallet"
)

// TeamConfig names the two sides of a team battle and the collection
// constraint each side must satisfy.
type TeamConfig struct {
	NameA       string `json:"name_a"`
	NameB       string `json:"name_b"`
	ConstraintA string `json:"constraint_a"`
	ConstraintB string `json:"constraint_b"`
}

// Lobby collects contestants for one channel until the host starts the
// battle. Contestants keeps insertion order; it is display order, not
// ranking. All mutation goes through methods holding mu: a capacity check
// and the corresponding add are atomic with respect to other registrations,
// and the OPEN -> IN_PROGRESS transition is a compare-and-set so concurrent
// starts cannot both pass the gate.
type Lobby struct {
	mu sync.Mutex

	HostID      string
	ChannelID   string
	Capacity    int
	Mode        RegistrationMode
	Teams       *TeamConfig
	Status      LobbyStatus
	Contestants []*Contestant
	CreatedAt   time.Time
}

// Admit appends c if the lobby is still open, the owner is not already
// registered and capacity allows. In team mode each side is additionally
// capped at half the total capacity. The returned values mirror the
// rejection reasons so the service layer can map them to its sentinel
// errors.
func (l *Lobby) Admit(c *Contestant) (duplicate, full, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Status != LobbyOpen {
		return false, false, true
	}
	for _, existing := range l.Contestants {
		if existing.OwnerID == c.OwnerID {
			return true, false, false
		}
	}
	if len(l.Contestants) >= l.Capacity {
		return false, true, false
	}
	if l.Teams != nil && c.Team != TeamNone && l.countTeam(c.Team) >= l.Capacity/2 {
		return false, true, false
	}
	l.Contestants = append(l.Contestants, c)
	return false, false, false
}

// Begin atomically moves an open lobby into progress and reports whether
// this call won the transition. Exactly one concurrent caller succeeds.
func (l *Lobby) Begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Status != LobbyOpen {
		return false
	}
	l.Status = LobbyInProgress
	return true
}

// Reopen reverts a Begin whose battle never launched (legality gate
// rejected it).
func (l *Lobby) Reopen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Status == LobbyInProgress {
		l.Status = LobbyOpen
	}
}

// Complete marks the lobby's battle as finished.
func (l *Lobby) Complete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Status = LobbyCompleted
}

// CurrentStatus reads the lifecycle status under the lobby lock.
func (l *Lobby) CurrentStatus() LobbyStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Status
}

// Size reports the current number of registered contestants.
func (l *Lobby) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Contestants)
}

// Snapshot returns a copy of the contestant list safe to iterate without
// holding the lobby lock.
func (l *Lobby) Snapshot() []*Contestant {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Contestant, len(l.Contestants))
	copy(out, l.Contestants)
	return out
}

// TeamCount reports how many registered contestants belong to the given team.
func (l *Lobby) TeamCount(team Team) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countTeam(team)
}

// countTeam counts a side's contestants; callers hold mu.
func (l *Lobby) countTeam(team Team) int {
	n := 0
	for _, c := range l.Contestants {
		if c.Team == team {
			n++
		}
	}
	return n
}
