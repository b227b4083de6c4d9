// Package proto defines the wire protocol shared by the game server and the
// client synchronization layer. Messages travel as JSON text frames, one
// envelope per frame, tagged with a kind and an opaque payload.
package proto

import "encoding/json"

// Message kinds. The string values are the on-wire tags.
const (
	KindPlayerJoined  = "PLAYER_JOINED"
	KindPlayerLeft    = "PLAYER_LEFT"
	KindPlayerMoved   = "PLAYER_MOVED"
	KindPlayerShot    = "PLAYER_SHOT"
	KindPlayerHit     = "PLAYER_HIT"
	KindPlayerRespawn = "PLAYER_RESPAWN"
	KindGameState     = "GAME_STATE"
	KindChatMessage   = "CHAT_MESSAGE"
	KindPing          = "ping"
	KindPong          = "pong"
)

// Envelope is the outer frame for every message.
type Envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Vector3 is a position or direction in world space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlayerSnapshot is the public projection of one tank.
type PlayerSnapshot struct {
	ID        string  `json:"id"`
	Position  Vector3 `json:"position"`
	HullYaw   float64 `json:"hullRotation"`
	TurretYaw float64 `json:"turretRotation"`
	Health    int     `json:"health"`
	MaxHealth int     `json:"maxHealth"`
	Alive     bool    `json:"alive"`
	Score     int     `json:"score"`
}

// BulletSnapshot is the public projection of one in-flight shell.
type BulletSnapshot struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"ownerId"`
	Position  Vector3 `json:"position"`
	Direction Vector3 `json:"direction"`
}

// PlayerLeft announces a departed player.
type PlayerLeft struct {
	ID string `json:"id"`
}

// PlayerMoved reports a tank transform. Clients omit ID; the server fills it
// from the connection identity before relaying, so payload-supplied ids can
// never attribute movement to another player.
type PlayerMoved struct {
	ID        string  `json:"id,omitempty"`
	Position  Vector3 `json:"position"`
	HullYaw   float64 `json:"hullRotation"`
	TurretYaw float64 `json:"turretRotation"`
	Seq       uint64  `json:"seq,omitempty"`
}

// PlayerShot reports a fired shell: the muzzle origin and a unit direction.
type PlayerShot struct {
	ID        string  `json:"id,omitempty"`
	Position  Vector3 `json:"position"`
	Direction Vector3 `json:"direction"`
}

// PlayerHit announces damage applied to a tank.
type PlayerHit struct {
	TargetID string `json:"targetId"`
	Damage   int    `json:"damage"`
	Health   int    `json:"health"`
	Killed   bool   `json:"killed"`
	KillerID string `json:"killerId"`
}

// PlayerRespawn announces a dead tank returning to play.
type PlayerRespawn struct {
	ID       string  `json:"id"`
	Position Vector3 `json:"position"`
	Health   int     `json:"health"`
}

// GameState is the full per-tick snapshot of canonical state.
type GameState struct {
	Tick       uint64                    `json:"tick"`
	ServerTime int64                     `json:"serverTime"`
	Players    map[string]PlayerSnapshot `json:"players"`
	Bullets    map[string]BulletSnapshot `json:"bullets"`
}

// ChatMessage relays player chat. The server stamps SentAt on relay.
type ChatMessage struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	SentAt int64  `json:"sentAt,omitempty"`
}

// Ping carries the client's send time in unix milliseconds.
type Ping struct {
	Timestamp int64 `json:"timestamp"`
}

// Pong echoes the ping timestamp alongside the server clock.
type Pong struct {
	Timestamp  int64 `json:"timestamp"`
	ServerTime int64 `json:"serverTime"`
}

// JoinResponse is returned by the HTTP join endpoint: the caller's identity
// plus the current snapshot.
type JoinResponse struct {
	ID      string                    `json:"id"`
	Players map[string]PlayerSnapshot `json:"players"`
	Bullets map[string]BulletSnapshot `json:"bullets"`
}
