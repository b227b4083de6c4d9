package game

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/MS-707/3DGame/internal/proto"
)

// Hub mediates between wire connections and the world. It owns the
// subscriber registry and the staged command queue; the world itself is only
// ever mutated under the hub mutex, on the tick timeline.
type Hub struct {
	mu    sync.Mutex
	world *World
	subs  map[string]*subscriber

	commands  *CommandBuffer
	logger    logr.Logger
	telemetry telemetryCounters
}

// NewHub constructs a hub around a fresh world.
func NewHub(cfg WorldConfig, logger logr.Logger) *Hub {
	return &Hub{
		world:    NewWorld(cfg, logger.WithName("world")),
		subs:     make(map[string]*subscriber),
		commands: NewCommandBuffer(commandQueueCapacity, perActorCommandLimit),
		logger:   logger,
	}
}

// subscriber is one attached connection. Outbound frames go through a
// buffered channel drained by a dedicated writer goroutine, so a slow
// client can never stall the tick broadcast: when the buffer is full the
// frame is dropped for that subscriber only.
type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// Send hands a frame to the writer, dropping it if the buffer is full.
func (s *subscriber) Send(data []byte) bool {
	defer func() {
		// A concurrent close can race the send; a dropped frame is the
		// correct outcome for a subscriber that is going away.
		_ = recover()
	}()
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) writePump(sub *subscriber) {
	for data := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.V(1).Info("write failed, dropping subscriber", "player", sub.id, "err", err.Error())
			h.DisconnectSession(sub.id, sub)
			break
		}
		h.telemetry.RecordSend(len(data))
	}
	sub.conn.Close()
}

// Join allocates a new player and returns its identity with the current
// snapshot. Everyone already connected hears about the newcomer.
func (h *Hub) Join() proto.JoinResponse {
	now := time.Now()

	h.mu.Lock()
	player := h.world.AddPlayer(now)
	snapshot := h.world.Snapshot(now)
	h.mu.Unlock()

	h.broadcastEvent(proto.KindPlayerJoined, player, player.ID)

	return proto.JoinResponse{ID: player.ID, Players: snapshot.Players, Bullets: snapshot.Bullets}
}

// Subscribe attaches a websocket connection to an existing player and
// returns the snapshot to seed the session with. A second connection for
// the same player replaces the first.
func (h *Hub) Subscribe(playerID string, conn *websocket.Conn) (*subscriber, proto.GameState, bool) {
	now := time.Now()

	h.mu.Lock()
	if !h.world.HasPlayer(playerID) {
		h.mu.Unlock()
		return nil, proto.GameState{}, false
	}
	h.world.RecordHeartbeat(playerID, now, 0)

	if existing, ok := h.subs[playerID]; ok {
		existing.close()
	}
	sub := &subscriber{id: playerID, conn: conn, send: make(chan []byte, subscriberSendBuffer)}
	h.subs[playerID] = sub
	snapshot := h.world.Snapshot(now)
	h.mu.Unlock()

	go h.writePump(sub)
	return sub, snapshot, true
}

// Disconnect removes the player from canonical state and tells everyone
// else. Safe to call repeatedly and for unknown ids.
func (h *Hub) Disconnect(playerID string) {
	h.mu.Lock()
	sub, hadSub := h.subs[playerID]
	if hadSub {
		delete(h.subs, playerID)
	}
	removed := h.world.RemovePlayer(playerID)
	h.mu.Unlock()

	if hadSub {
		sub.close()
	}
	if removed {
		h.logger.Info("player left", "player", playerID)
		h.broadcastEvent(proto.KindPlayerLeft, proto.PlayerLeft{ID: playerID}, "")
	}
}

// DisconnectSession removes the player only if the given session is still
// the registered one. A replaced session tearing down late (its write pump
// or read loop erroring out after a re-attach) must not remove the player
// or the replacement subscriber.
func (h *Hub) DisconnectSession(playerID string, session any) {
	h.mu.Lock()
	current, attached := h.subs[playerID]
	h.mu.Unlock()
	if attached && any(current) != session {
		return
	}
	h.Disconnect(playerID)
}

// EnqueueMove stages a movement command attributed to the given connection
// identity for the next tick.
func (h *Hub) EnqueueMove(playerID string, move MoveCommand) {
	h.enqueue(Command{ActorID: playerID, Type: CommandMove, IssuedAt: time.Now(), Move: &move})
}

// EnqueueFire stages a fire command for the next tick.
func (h *Hub) EnqueueFire(playerID string, fire FireCommand) {
	h.enqueue(Command{ActorID: playerID, Type: CommandFire, IssuedAt: time.Now(), Fire: &fire})
}

func (h *Hub) enqueue(cmd Command) {
	if !h.commands.Push(cmd) {
		h.telemetry.RecordDroppedCommand()
		h.logger.V(1).Info("command queue full, dropping", "player", cmd.ActorID, "type", string(cmd.Type))
	}
}

// RecordHeartbeat forwards connectivity bookkeeping to the world.
func (h *Hub) RecordHeartbeat(playerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.RecordHeartbeat(playerID, receivedAt, clientSent)
}

// BroadcastChat relays a chat line to every connected client with a server
// timestamp. Chat never touches canonical state.
func (h *Hub) BroadcastChat(playerID, text string) {
	if text == "" {
		return
	}
	h.broadcastEvent(proto.KindChatMessage, proto.ChatMessage{
		ID:     playerID,
		Text:   text,
		SentAt: time.Now().UnixMilli(),
	}, "")
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes. One iteration: evict silent players, apply staged commands,
// advance the world, then fan out the tick's events and the snapshot in a
// single deterministic order.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	last := time.Now()
	var tick uint64
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(TickRate)
			}
			last = now
			tick++

			started := time.Now()
			h.advance(tick, now, dt)
			h.telemetry.RecordTickDuration(time.Since(started))
		}
	}
}

func (h *Hub) advance(tick uint64, now time.Time, dt float64) {
	commands := h.commands.Drain()

	h.mu.Lock()

	stale := h.world.StalePlayers(now)
	staleSubs := make([]*subscriber, 0, len(stale))
	for _, id := range stale {
		h.world.RemovePlayer(id)
		if sub, ok := h.subs[id]; ok {
			staleSubs = append(staleSubs, sub)
			delete(h.subs, id)
		}
	}

	moves := make([]proto.PlayerMoved, 0, len(commands))
	shots := make([]proto.PlayerShot, 0)
	for _, cmd := range commands {
		switch cmd.Type {
		case CommandMove:
			if cmd.Move == nil {
				continue
			}
			m := *cmd.Move
			if h.world.ApplyMove(cmd.ActorID, m.Position, m.HullYaw, m.TurretYaw, m.Seq, now) {
				moves = append(moves, proto.PlayerMoved{
					ID:        cmd.ActorID,
					Position:  m.Position,
					HullYaw:   m.HullYaw,
					TurretYaw: m.TurretYaw,
					Seq:       m.Seq,
				})
			}
		case CommandFire:
			if cmd.Fire == nil {
				continue
			}
			if shot, ok := h.world.ApplyFire(cmd.ActorID, cmd.Fire.Position, cmd.Fire.Direction, now); ok {
				shots = append(shots, shot)
			}
		}
	}

	result := h.world.Step(tick, now, dt)
	snapshot := h.world.Snapshot(now)
	h.mu.Unlock()

	for _, sub := range staleSubs {
		h.logger.Info("disconnecting silent player", "player", sub.id)
		sub.close()
	}
	for _, id := range stale {
		h.broadcastEvent(proto.KindPlayerLeft, proto.PlayerLeft{ID: id}, "")
	}
	// Move relays deliberately include the mover: the self-echo carries the
	// accepted sequence number, which is how the owning client retires its
	// pending inputs.
	for _, move := range moves {
		h.broadcastEvent(proto.KindPlayerMoved, move, "")
	}
	for _, shot := range shots {
		h.broadcastEvent(proto.KindPlayerShot, shot, "")
	}
	for _, hit := range result.Hits {
		h.broadcastEvent(proto.KindPlayerHit, hit, "")
	}
	for _, respawn := range result.Respawns {
		h.broadcastEvent(proto.KindPlayerRespawn, respawn, "")
	}
	h.broadcastEvent(proto.KindGameState, snapshot, "")
}

// broadcastEvent encodes a frame once and fans it out to every subscriber,
// optionally skipping one id. Frame drops for saturated subscribers are
// counted, never waited on.
func (h *Hub) broadcastEvent(kind string, payload any, exceptID string) {
	data, err := proto.Encode(kind, payload)
	if err != nil {
		h.logger.Error(err, "failed to encode broadcast", "kind", kind)
		return
	}

	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for id, sub := range h.subs {
		if id == exceptID {
			continue
		}
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		if !sub.Send(data) {
			h.telemetry.RecordDroppedFrame()
		}
	}
}

// DiagnosticsPlayer is the per-player connectivity view for diagnostics.
type DiagnosticsPlayer struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
	Score         int    `json:"score"`
	Alive         bool   `json:"alive"`
}

// DiagnosticsSnapshot exposes heartbeat and telemetry data.
func (h *Hub) DiagnosticsSnapshot() ([]DiagnosticsPlayer, TelemetrySnapshot) {
	h.mu.Lock()
	players := make([]DiagnosticsPlayer, 0, len(h.world.playerOrder))
	for _, id := range h.world.playerOrder {
		state := h.world.players[id]
		players = append(players, DiagnosticsPlayer{
			ID:            id,
			LastHeartbeat: state.lastHeartbeat.UnixMilli(),
			RTTMillis:     state.lastRTT.Milliseconds(),
			Score:         state.Score,
			Alive:         state.Alive,
		})
	}
	h.mu.Unlock()
	return players, h.telemetry.Snapshot()
}
