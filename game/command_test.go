package game

import (
	"fmt"
	"testing"
	"time"
)

func TestCommandBufferFIFO(t *testing.T) {
	buf := NewCommandBuffer(8, 0)
	now := time.Now()
	for i := 0; i < 5; i++ {
		ok := buf.Push(Command{ActorID: fmt.Sprintf("player-%d", i), Type: CommandMove, IssuedAt: now})
		if !ok {
			t.Fatalf("push %d rejected below capacity", i)
		}
	}

	drained := buf.Drain()
	if len(drained) != 5 {
		t.Fatalf("drained %d commands, want 5", len(drained))
	}
	for i, cmd := range drained {
		want := fmt.Sprintf("player-%d", i)
		if cmd.ActorID != want {
			t.Fatalf("command %d actor = %s, want %s", i, cmd.ActorID, want)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("buffer should be empty after drain")
	}
}

func TestCommandBufferOverflowDrops(t *testing.T) {
	buf := NewCommandBuffer(2, 0)
	if !buf.Push(Command{ActorID: "a"}) || !buf.Push(Command{ActorID: "b"}) {
		t.Fatalf("pushes below capacity rejected")
	}
	if buf.Push(Command{ActorID: "c"}) {
		t.Fatalf("push above capacity should be rejected")
	}
	if got := buf.Dropped(); got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}

	drained := buf.Drain()
	if len(drained) != 2 || drained[0].ActorID != "a" || drained[1].ActorID != "b" {
		t.Fatalf("overflow corrupted staged commands: %+v", drained)
	}
}

func TestCommandBufferPerActorLimit(t *testing.T) {
	buf := NewCommandBuffer(64, 4)
	for i := 0; i < 10; i++ {
		buf.Push(Command{ActorID: "flooder", Type: CommandMove})
	}
	if got := buf.Len(); got != 4 {
		t.Fatalf("staged %d commands from one actor, want the limit of 4", got)
	}
	if got := buf.Dropped(); got != 6 {
		t.Fatalf("dropped = %d, want 6", got)
	}

	// Other actors are unaffected by someone else's flood.
	if !buf.Push(Command{ActorID: "other", Type: CommandMove}) {
		t.Fatalf("a different actor should still have room")
	}

	// Draining resets the per-actor counts for the next tick.
	buf.Drain()
	if !buf.Push(Command{ActorID: "flooder", Type: CommandMove}) {
		t.Fatalf("the limit should reset after a drain")
	}
}

func TestCommandBufferWrapAround(t *testing.T) {
	buf := NewCommandBuffer(3, 0)
	for round := 0; round < 4; round++ {
		for i := 0; i < 3; i++ {
			if !buf.Push(Command{ActorID: fmt.Sprintf("r%d-%d", round, i)}) {
				t.Fatalf("round %d push %d rejected", round, i)
			}
		}
		drained := buf.Drain()
		if len(drained) != 3 {
			t.Fatalf("round %d drained %d, want 3", round, len(drained))
		}
		if drained[0].ActorID != fmt.Sprintf("r%d-0", round) {
			t.Fatalf("round %d lost FIFO order: %+v", round, drained)
		}
	}
}
