package services

import (
	"testing"
	"time"

	"github.com/nftbrawl/arena-bot/models"
)

func openLobby(age time.Duration) *models.Lobby {
	return &models.Lobby{
		Status:    models.LobbyOpen,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestSessionStorePutIfAbsent(t *testing.T) {
	store := NewSessionStore()

	if !store.PutIfAbsent("chan", &Session{Lobby: openLobby(0)}) {
		t.Fatal("first put must succeed")
	}
	if store.PutIfAbsent("chan", &Session{Lobby: openLobby(0)}) {
		t.Fatal("second put for the same channel must lose")
	}
	if store.Get("chan") == nil {
		t.Fatal("session must be retrievable")
	}

	store.Remove("chan")
	if store.Get("chan") != nil {
		t.Fatal("removed session must be gone")
	}
}

func TestExpireStaleClearsOldOpenLobbies(t *testing.T) {
	store := NewSessionStore()
	store.PutIfAbsent("stale", &Session{Lobby: openLobby(2 * time.Hour)})
	store.PutIfAbsent("fresh", &Session{Lobby: openLobby(time.Minute)})

	cleared := store.ExpireStale(30 * time.Minute)
	if len(cleared) != 1 || cleared[0] != "stale" {
		t.Fatalf("expected only the stale channel cleared, got %v", cleared)
	}
	if store.Get("stale") != nil {
		t.Fatal("stale session must be removed")
	}
	if store.Get("fresh") == nil {
		t.Fatal("fresh session must survive")
	}
}

func TestExpireStaleNeverTouchesRunningBattles(t *testing.T) {
	store := NewSessionStore()
	lobby := openLobby(2 * time.Hour)
	lobby.Status = models.LobbyInProgress
	store.PutIfAbsent("running", &Session{
		Lobby:      lobby,
		Tournament: &models.Tournament{Status: models.TournamentInProgress},
	})

	if cleared := store.ExpireStale(time.Minute); len(cleared) != 0 {
		t.Fatalf("running battle must not expire, got %v", cleared)
	}
	if store.Get("running") == nil {
		t.Fatal("running session must survive")
	}
}
