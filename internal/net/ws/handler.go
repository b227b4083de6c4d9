// Package ws hosts the websocket side of the gateway: connection upgrade
// and the per-session read loop that feeds the hub.
package ws

import (
	"net/http"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/MS-707/3DGame/game"
	"github.com/MS-707/3DGame/internal/proto"
)

// Handler upgrades HTTP requests and attaches them to the hub.
type Handler struct {
	hub      *game.Hub
	logger   logr.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs the websocket attach handler.
func NewHandler(hub *game.Hub, logger logr.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Prototype: accept any origin. Lock this down before exposing
			// the server beyond the dev network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection, seeds it with a full snapshot and runs
// the session read loop until the peer goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(err, "upgrade failed", "player", playerID)
		return
	}

	sub, snapshot, ok := h.hub.Subscribe(playerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	initial, err := proto.Encode(proto.KindGameState, snapshot)
	if err != nil {
		h.logger.Error(err, "failed to encode initial snapshot", "player", playerID)
		h.hub.Disconnect(playerID)
		return
	}
	sub.Send(initial)

	h.readLoop(playerID, conn, sub)
}
