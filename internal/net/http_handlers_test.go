package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"

	"github.com/MS-707/3DGame/game"
	"github.com/MS-707/3DGame/internal/proto"
)

func newTestRouter() (http.Handler, *game.Hub) {
	hub := game.NewHub(game.WorldConfig{Seed: "test"}, logr.Discard())
	return NewRouter(hub, logr.Discard()), hub
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestJoinEndpointAllocatesPlayer(t *testing.T) {
	router, hub := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/join", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}

	var join proto.JoinResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &join); err != nil {
		t.Fatalf("failed to decode join payload: %v", err)
	}
	if join.ID == "" {
		t.Fatalf("join response missing id")
	}
	if _, ok := join.Players[join.ID]; !ok {
		t.Fatalf("join snapshot missing the new player")
	}

	// The allocated identity is live in the hub, not just in the response.
	second := hub.Join()
	if len(second.Players) != 2 {
		t.Fatalf("expected both players in state, got %d", len(second.Players))
	}
}

func TestJoinEndpointRejectsGet(t *testing.T) {
	router, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/join", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	router, hub := newTestRouter()
	join := hub.Join()

	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		Status   string                   `json:"status"`
		TickRate int                      `json:"tickRate"`
		Players  []game.DiagnosticsPlayer `json:"players"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics payload: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("expected status ok, got %q", payload.Status)
	}
	if payload.TickRate != game.TickRate {
		t.Fatalf("expected tick rate %d, got %d", game.TickRate, payload.TickRate)
	}
	if len(payload.Players) != 1 || payload.Players[0].ID != join.ID {
		t.Fatalf("diagnostics players = %+v", payload.Players)
	}
}
