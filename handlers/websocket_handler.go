package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ctfboard/ctfboard/scoring"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The scoreboard is public read-only data; any origin may watch.
		return true
	},
}

type WebSocketHandler struct {
	hub    *scoring.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *scoring.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeWs attaches a websocket client to a broadcast room. Clients connect
// to /ws/{room}, where room is "scoreboard" or "replay".
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	switch room {
	case scoring.RoomScoreboard, scoring.RoomReplay:
	default:
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed",
			slog.String("room", room), slog.Any("error", err))
		return
	}

	h.hub.Subscribe(conn, room)
	h.logger.Info("websocket client subscribed",
		slog.String("room", room),
		slog.Int("subscribers", h.hub.RoomSize(room)))
}
