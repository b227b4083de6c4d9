// Package net wires the hub's HTTP surface: join, health and diagnostics,
// plus the websocket attach point.
package net

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"

	"github.com/MS-707/3DGame/game"
	netws "github.com/MS-707/3DGame/internal/net/ws"
)

// NewRouter builds the server's route table around the given hub.
func NewRouter(hub *game.Hub, logger logr.Logger) *mux.Router {
	ws := netws.NewHandler(hub, logger.WithName("ws"))

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/join", handleJoin(hub, logger)).Methods(http.MethodPost)
	r.HandleFunc("/diagnostics", handleDiagnostics(hub)).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeHTTP)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func handleJoin(hub *game.Hub, logger logr.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		join := hub.Join()
		logger.Info("player joined", "player", join.ID, "remote", r.RemoteAddr)
		writeJSON(w, join)
	}
}

func handleDiagnostics(hub *game.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		players, telemetry := hub.DiagnosticsSnapshot()
		payload := struct {
			Status     string                   `json:"status"`
			ServerTime int64                    `json:"serverTime"`
			TickRate   int                      `json:"tickRate"`
			Players    []game.DiagnosticsPlayer `json:"players"`
			Telemetry  game.TelemetrySnapshot   `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   game.TickRate,
			Players:    players,
			Telemetry:  telemetry,
		}
		writeJSON(w, payload)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
