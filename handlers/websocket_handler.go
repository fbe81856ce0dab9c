package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nftbrawl/arena-bot/brackets"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO(spectator-ui): restrict to the spectator frontend origin once
		// it is deployed.
		return true
	},
}

// WebSocketHandler attaches spectators to a channel's event room.
type WebSocketHandler struct {
	hub *brackets.Hub
	log *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, log: log}
}

// ServeWs upgrades the connection and joins the client to the channel room.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if channelID == "" {
		http.Error(w, "missing channelID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.log.Warn("websocket upgrade failed",
			slog.String("channel", channelID), slog.Any("error", err))
		return
	}

	h.hub.Register(brackets.NewClient(h.hub, conn, channelID))
}
