package services

import (
	"sync"
	"time"

	"github.com/nftbrawl/arena-bot/models"
)

// Session ties the per-channel battle state together: the open lobby and,
// once started, the running tournament. One session per channel; lifecycle
// is one-to-one with lobby/tournament existence.
type Session struct {
	Lobby      *models.Lobby
	Settings   models.Settings
	Tournament *models.Tournament
}

// SessionStore is the explicit replacement for ambient "active lobby by
// channel" globals. It is passed to every component that needs it.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the session for a channel, or nil.
func (s *SessionStore) Get(channelID string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[channelID]
}

// PutIfAbsent installs a session for the channel and reports whether it was
// installed; an existing session wins.
func (s *SessionStore) PutIfAbsent(channelID string, session *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[channelID]; exists {
		return false
	}
	s.sessions[channelID] = session
	return true
}

// Remove deletes the channel's session.
func (s *SessionStore) Remove(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, channelID)
}

// ExpireStale removes sessions whose lobby is still open but older than
// ttl, and reports the channels cleared. Running tournaments are never
// expired.
func (s *SessionStore) ExpireStale(ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared []string
	cutoff := time.Now().Add(-ttl)
	for channelID, session := range s.sessions {
		if session.Tournament != nil {
			continue
		}
		if session.Lobby != nil && session.Lobby.CurrentStatus() == models.LobbyOpen && session.Lobby.CreatedAt.Before(cutoff) {
			delete(s.sessions, channelID)
			cleared = append(cleared, channelID)
		}
	}
	return cleared
}
