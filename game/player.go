package game

import (
	"time"

	"github.com/MS-707/3DGame/internal/proto"
)

// playerState is the canonical record for one tank. The embedded snapshot
// holds the public fields; everything else is server-side bookkeeping.
type playerState struct {
	proto.PlayerSnapshot

	lastFire      time.Time
	respawnDue    time.Time
	lastHeartbeat time.Time
	lastRTT       time.Duration

	// lastSeq is the most recent movement sequence number accepted for this
	// player, echoed back out so the owning client can retire its pending
	// inputs.
	lastSeq uint64

	// lastMoveAt supports the optional displacement-rate gate.
	lastMoveAt time.Time
}

func (s *playerState) snapshot() proto.PlayerSnapshot {
	return s.PlayerSnapshot
}

// applyDamage subtracts health, clamping at zero, and reports whether the
// hit was lethal. Health stays within [0, MaxHealth] unconditionally.
func (s *playerState) applyDamage(amount int) bool {
	if amount <= 0 || !s.Alive {
		return false
	}
	s.Health -= amount
	if s.Health <= 0 {
		s.Health = 0
		s.Alive = false
		return true
	}
	return false
}
