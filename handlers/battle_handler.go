package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/services"
)

// BattleHandler is the transport-neutral control surface for battles. A
// chat-platform adapter drives the same service calls; this HTTP form keeps
// the engine usable headless and gives spectator frontends read access.
type BattleHandler struct {
	// runCtx scopes running battles to the process, not the request that
	// started them: a battle easily outlives its HTTP connection.
	runCtx      context.Context
	sessions    *services.SessionStore
	setup       *services.SetupService
	lobbies     *services.LobbyService
	tournaments *services.TournamentService
}

func NewBattleHandler(
	runCtx context.Context,
	sessions *services.SessionStore,
	setup *services.SetupService,
	lobbies *services.LobbyService,
	tournaments *services.TournamentService,
) *BattleHandler {
	return &BattleHandler{
		runCtx:      runCtx,
		sessions:    sessions,
		setup:       setup,
		lobbies:     lobbies,
		tournaments: tournaments,
	}
}

// GetState returns the lobby or tournament currently bound to a channel.
func (h *BattleHandler) GetState(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	session := h.sessions.Get(channelID)
	if session == nil {
		writeError(w, services.ErrLobbyNotFound)
		return
	}

	payload := jsonResponse{}
	if lobby := session.Lobby; lobby != nil {
		entry := jsonResponse{
			"host_id":     lobby.HostID,
			"mode":        lobby.Mode,
			"capacity":    lobby.Capacity,
			"status":      lobby.CurrentStatus(),
			"contestants": lobby.Snapshot(),
		}
		if lobby.Teams != nil {
			entry["team_counts"] = jsonResponse{
				lobby.Teams.NameA: lobby.TeamCount(models.TeamA),
				lobby.Teams.NameB: lobby.TeamCount(models.TeamB),
			}
		}
		payload["lobby"] = entry
	}
	if session.Tournament != nil {
		payload["tournament"] = session.Tournament
	}
	writeJSON(w, http.StatusOK, payload)
}

// CreateLobby runs the setup wizard for the host and opens the lobby.
func (h *BattleHandler) CreateLobby(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var input struct {
		HostID   string `json:"host_id"`
		Capacity int    `json:"capacity"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{"error": err.Error()})
		return
	}
	if input.HostID == "" {
		writeJSON(w, http.StatusBadRequest, jsonResponse{"error": "host_id is required"})
		return
	}

	state, err := h.setup.Run(r.Context(), input.HostID)
	if err != nil {
		writeError(w, err)
		return
	}

	lobby, err := h.lobbies.Create(r.Context(), input.HostID, channelID, input.Capacity, state.Mode, state.Teams, state.Settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{
		"channel_id": lobby.ChannelID,
		"mode":       lobby.Mode,
		"capacity":   lobby.Capacity,
	})
}

// Register admits one contestant into the channel's lobby.
func (h *BattleHandler) Register(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var input struct {
		UserID          string `json:"user_id"`
		Name            string `json:"name"`
		ImageURL        string `json:"image_url,omitempty"`
		ConstraintAlias string `json:"constraint_alias,omitempty"`
		Team            string `json:"team,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{"error": err.Error()})
		return
	}

	contestant, err := h.lobbies.Register(r.Context(), channelID, services.RegistrationInput{
		UserID:          input.UserID,
		Name:            input.Name,
		ImageURL:        input.ImageURL,
		ConstraintAlias: input.ConstraintAlias,
		Team:            models.Team(input.Team),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contestant)
}

// Start launches the battle. Validation errors surface immediately; the
// round loop then runs detached, so the response never waits on generation
// and spectators follow progress over the websocket feed.
func (h *BattleHandler) Start(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	tournament, err := h.tournaments.Launch(h.runCtx, channelID, time.Now().UnixNano())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jsonResponse{
		"tournament_id": tournament.ID,
		"status":        tournament.Status,
	})
}

// Discard drops a still-open lobby. Host only.
func (h *BattleHandler) Discard(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var input struct {
		UserID string `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{"error": err.Error()})
		return
	}

	if err := h.lobbies.Discard(r.Context(), channelID, input.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
