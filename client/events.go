package client

import "github.com/MS-707/3DGame/internal/proto"

// EventKind discriminates the entries on the event stream consumed by the
// presentation adapter.
type EventKind string

const (
	EventJoined    EventKind = "joined"
	EventMoved     EventKind = "moved"
	EventHit       EventKind = "hit"
	EventRespawned EventKind = "respawned"
	EventLeft      EventKind = "left"
	EventState     EventKind = "state"
	EventChat      EventKind = "chat"
	EventStatus    EventKind = "status"
)

// Event is one typed update from the synchronization layer. Exactly one of
// the payload pointers is set, matching Kind; Status is set for
// EventStatus.
type Event struct {
	Kind     EventKind
	EntityID string

	Player  *proto.PlayerSnapshot
	Moved   *proto.PlayerMoved
	Hit     *proto.PlayerHit
	Respawn *proto.PlayerRespawn
	State   *proto.GameState
	Chat    *proto.ChatMessage
	Status  ConnState
}
