package game

import (
	"sync"
	"time"

	"github.com/MS-707/3DGame/internal/proto"
)

// CommandType enumerates the staged simulation commands.
type CommandType string

const (
	CommandMove CommandType = "Move"
	CommandFire CommandType = "Fire"
)

// MoveCommand carries a client-reported tank transform.
type MoveCommand struct {
	Position  proto.Vector3
	HullYaw   float64
	TurretYaw float64
	Seq       uint64
}

// FireCommand carries the muzzle origin and direction of a fire request.
type FireCommand struct {
	Position  proto.Vector3
	Direction proto.Vector3
}

// Command is an intent captured off a connection for processing on the next
// tick. ActorID always comes from the connection identity, never the wire.
type Command struct {
	ActorID  string
	Type     CommandType
	IssuedAt time.Time
	Move     *MoveCommand
	Fire     *FireCommand
}

// CommandBuffer stores staged commands in a fixed-size ring. It is safe for
// concurrent producers and a single consumer. A per-actor limit keeps one
// flooding client from starving everyone else's slice of the ring.
type CommandBuffer struct {
	mu       sync.Mutex
	data     []Command
	head     int
	tail     int
	count    int
	perActor map[string]int
	limit    int

	dropped uint64
}

// NewCommandBuffer constructs a ring buffer with the provided capacity.
// perActorLimit caps how many commands one actor may stage between drains;
// zero disables the cap.
func NewCommandBuffer(capacity, perActorLimit int) *CommandBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &CommandBuffer{
		data:     make([]Command, capacity),
		perActor: make(map[string]int),
		limit:    perActorLimit,
	}
}

// Push stages a command, returning false if the buffer is full or the actor
// already has its limit staged.
func (b *CommandBuffer) Push(cmd Command) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == len(b.data) {
		b.dropped++
		return false
	}
	if b.limit > 0 && cmd.ActorID != "" {
		if b.perActor[cmd.ActorID] >= b.limit {
			b.dropped++
			return false
		}
		b.perActor[cmd.ActorID]++
	}
	b.data[b.tail] = cmd
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	return true
}

// Drain returns all staged commands in FIFO order and clears the buffer,
// resetting the per-actor counts for the next tick.
func (b *CommandBuffer) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.perActor) > 0 {
		b.perActor = make(map[string]int)
	}
	if b.count == 0 {
		return nil
	}
	commands := make([]Command, b.count)
	for i := 0; i < b.count; i++ {
		commands[i] = b.data[(b.head+i)%len(b.data)]
	}
	b.head = 0
	b.tail = 0
	b.count = 0
	return commands
}

// Len reports the number of staged commands.
func (b *CommandBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped reports how many commands overflowed the ring since construction.
func (b *CommandBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
