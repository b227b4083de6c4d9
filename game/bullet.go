package game

import (
	"time"

	"github.com/MS-707/3DGame/internal/proto"
)

// bulletState is the canonical record for one shell in flight.
type bulletState struct {
	proto.BulletSnapshot

	firedAt time.Time
	damage  int
}

func (b *bulletState) snapshot() proto.BulletSnapshot {
	return b.BulletSnapshot
}

// expired reports whether the shell has outlived its flight time.
func (b *bulletState) expired(now time.Time) bool {
	return now.Sub(b.firedAt) > bulletLifetime
}
