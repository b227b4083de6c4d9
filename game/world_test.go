package game

import (
	"math"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/MS-707/3DGame/internal/proto"
)

func newTestWorld() *World {
	return NewWorld(WorldConfig{Seed: "test"}, logr.Discard())
}

func addTestPlayer(t *testing.T, w *World, now time.Time, pos proto.Vector3) string {
	t.Helper()
	player := w.AddPlayer(now)
	w.players[player.ID].Position = pos
	return player.ID
}

func tickDelta() float64 {
	return 1.0 / float64(TickRate)
}

func TestUnknownPlayerOperationsAreNoOps(t *testing.T) {
	w := newTestWorld()
	now := time.Now()

	if w.ApplyMove("ghost", proto.Vector3{X: 10}, 0, 0, 1, now) {
		t.Fatalf("ApplyMove for unknown player should report false")
	}
	if _, ok := w.ApplyFire("ghost", proto.Vector3{}, proto.Vector3{Z: 1}, now); ok {
		t.Fatalf("ApplyFire for unknown player should report false")
	}
	if w.RemovePlayer("ghost") {
		t.Fatalf("RemovePlayer for unknown player should report false")
	}

	snapshot := w.Snapshot(now)
	if len(snapshot.Players) != 0 || len(snapshot.Bullets) != 0 {
		t.Fatalf("state should be unchanged, got %d players %d bullets", len(snapshot.Players), len(snapshot.Bullets))
	}
}

func TestApplyMoveOverwritesTransform(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})

	if !w.ApplyMove(id, proto.Vector3{X: 60, Z: 70}, 1.5, 0.5, 7, now) {
		t.Fatalf("ApplyMove rejected a valid move")
	}
	state := w.players[id]
	if state.Position.X != 60 || state.Position.Z != 70 {
		t.Fatalf("position not applied: %+v", state.Position)
	}
	if state.HullYaw != 1.5 || state.TurretYaw != 0.5 {
		t.Fatalf("rotations not applied: hull=%v turret=%v", state.HullYaw, state.TurretYaw)
	}
	if state.lastSeq != 7 {
		t.Fatalf("lastSeq = %d, want 7", state.lastSeq)
	}
}

func TestApplyMoveClampsToBounds(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})

	w.ApplyMove(id, proto.Vector3{X: -100, Z: 1e6}, 0, 0, 1, now)
	state := w.players[id]
	if state.Position.X != 0 {
		t.Fatalf("X should clamp to 0, got %v", state.Position.X)
	}
	if state.Position.Z != w.config.Depth {
		t.Fatalf("Z should clamp to %v, got %v", w.config.Depth, state.Position.Z)
	}
}

func TestApplyMoveRejectedWhenDead(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	w.players[id].Alive = false
	w.players[id].Health = 0

	if w.ApplyMove(id, proto.Vector3{X: 60, Z: 60}, 0, 0, 1, now) {
		t.Fatalf("dead players must not move")
	}
	if w.players[id].Position.X != 50 {
		t.Fatalf("position mutated for dead player")
	}
}

func TestSpeedGateRejectsImplausibleMove(t *testing.T) {
	w := NewWorld(WorldConfig{Seed: "test", MaxMoveSpeed: 10}, logr.Discard())
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})

	if !w.ApplyMove(id, proto.Vector3{X: 51, Z: 50}, 0, 0, 1, now) {
		t.Fatalf("first move should be accepted")
	}
	later := now.Add(time.Second)
	if w.ApplyMove(id, proto.Vector3{X: 151, Z: 50}, 0, 0, 2, later) {
		t.Fatalf("100 units in 1s should exceed the 10 u/s gate")
	}
	if !w.ApplyMove(id, proto.Vector3{X: 56, Z: 50}, 0, 0, 3, later) {
		t.Fatalf("5 units in 1s should pass the gate")
	}
}

func TestFireCooldownSuppressesSecondShot(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})

	if _, ok := w.ApplyFire(id, proto.Vector3{X: 50, Z: 50}, proto.Vector3{Z: 1}, now); !ok {
		t.Fatalf("first shot should be accepted")
	}
	if _, ok := w.ApplyFire(id, proto.Vector3{X: 50, Z: 50}, proto.Vector3{Z: 1}, now.Add(fireCooldown/2)); ok {
		t.Fatalf("second shot inside the cooldown should be rejected")
	}
	if len(w.bullets) != 1 {
		t.Fatalf("expected exactly 1 bullet, got %d", len(w.bullets))
	}
	if _, ok := w.ApplyFire(id, proto.Vector3{X: 50, Z: 50}, proto.Vector3{Z: 1}, now.Add(fireCooldown+time.Millisecond)); !ok {
		t.Fatalf("shot after the cooldown should be accepted")
	}
}

func TestFireNormalizesDirection(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})

	shot, ok := w.ApplyFire(id, proto.Vector3{X: 50, Z: 50}, proto.Vector3{X: 0, Z: 10}, now)
	if !ok {
		t.Fatalf("shot rejected")
	}
	if math.Abs(shot.Direction.Z-1) > 1e-9 {
		t.Fatalf("direction not normalized: %+v", shot.Direction)
	}

	if _, ok := w.ApplyFire(id, proto.Vector3{}, proto.Vector3{}, now.Add(fireCooldown*2)); ok {
		t.Fatalf("zero direction should be rejected")
	}
}

func TestBulletExpiresWithoutEffect(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	shooter := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	target := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 55})

	if _, ok := w.ApplyFire(shooter, proto.Vector3{X: 50, Z: 54}, proto.Vector3{Z: 1}, now); !ok {
		t.Fatalf("shot rejected")
	}

	// Step once past the lifetime: the shell would overlap the target, but
	// an expired shell is removed without effect.
	result := w.Step(1, now.Add(bulletLifetime+time.Second), tickDelta())
	if len(result.Hits) != 0 {
		t.Fatalf("expired bullet must not hit")
	}
	if len(w.bullets) != 0 {
		t.Fatalf("expired bullet should be removed")
	}
	if w.players[target].Health != tankMaxHealth {
		t.Fatalf("target health changed by an expired bullet")
	}
}

func TestBulletHitAppliesDamageOnce(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	shooter := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	target := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 58})

	if _, ok := w.ApplyFire(shooter, proto.Vector3{X: 50, Z: 50}, proto.Vector3{Z: 1}, now); !ok {
		t.Fatalf("shot rejected")
	}

	result := w.Step(1, now.Add(time.Second/TickRate), tickDelta())
	if len(result.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(result.Hits))
	}
	hit := result.Hits[0]
	if hit.TargetID != target || hit.KillerID != shooter {
		t.Fatalf("wrong attribution: %+v", hit)
	}
	if hit.Damage != bulletDamage || hit.Killed {
		t.Fatalf("unexpected hit payload: %+v", hit)
	}
	if got := w.players[target].Health; got != tankMaxHealth-bulletDamage {
		t.Fatalf("target health = %d, want %d", got, tankMaxHealth-bulletDamage)
	}
	if w.players[shooter].Score != 0 {
		t.Fatalf("non-lethal hit must not score")
	}
	if len(w.bullets) != 0 {
		t.Fatalf("bullet should be consumed by the hit")
	}
}

func TestLethalHitScoresAndSchedulesRespawn(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	shooter := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	target := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 53})
	w.players[target].Health = bulletDamage

	if _, ok := w.ApplyFire(shooter, proto.Vector3{X: 50, Z: 51}, proto.Vector3{Z: 1}, now); !ok {
		t.Fatalf("shot rejected")
	}

	result := w.Step(1, now.Add(time.Second/TickRate), tickDelta())
	if len(result.Hits) != 1 || !result.Hits[0].Killed {
		t.Fatalf("expected a lethal hit, got %+v", result.Hits)
	}
	state := w.players[target]
	if state.Alive || state.Health != 0 {
		t.Fatalf("dead player should have alive=false health=0, got alive=%v health=%d", state.Alive, state.Health)
	}
	if w.players[shooter].Score != 1 {
		t.Fatalf("shooter score = %d, want 1", w.players[shooter].Score)
	}
	if state.respawnDue.IsZero() {
		t.Fatalf("respawn should be scheduled")
	}
}

func TestHealthInvariantHoldsAcrossOverkill(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	shooter := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	target := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 53})
	w.players[target].Health = 5 // less than one bullet's damage

	w.ApplyFire(shooter, proto.Vector3{X: 50, Z: 51}, proto.Vector3{Z: 1}, now)
	w.Step(1, now.Add(time.Second/TickRate), tickDelta())

	state := w.players[target]
	if state.Health < 0 || state.Health > state.MaxHealth {
		t.Fatalf("health out of bounds: %d", state.Health)
	}
	if state.Alive != (state.Health != 0) {
		t.Fatalf("alive flag inconsistent with health: alive=%v health=%d", state.Alive, state.Health)
	}
}

func TestRespawnAfterDelay(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	state := w.players[id]
	state.Alive = false
	state.Health = 0
	state.respawnDue = now.Add(respawnDelay)

	// Before the timer: still dead.
	result := w.Step(1, now.Add(respawnDelay-time.Millisecond), tickDelta())
	if len(result.Respawns) != 0 || state.Alive {
		t.Fatalf("player revived early")
	}

	result = w.Step(2, now.Add(respawnDelay+time.Millisecond), tickDelta())
	if len(result.Respawns) != 1 {
		t.Fatalf("expected a respawn event, got %d", len(result.Respawns))
	}
	if !state.Alive || state.Health != tankMaxHealth {
		t.Fatalf("respawned player should be alive at full health, got alive=%v health=%d", state.Alive, state.Health)
	}
	if !state.respawnDue.IsZero() {
		t.Fatalf("respawn timer should be cleared")
	}
}

func TestSpawnAvoidsCenterExclusion(t *testing.T) {
	w := newTestWorld()
	center := proto.Vector3{X: w.config.Width / 2, Z: w.config.Depth / 2}
	for i := 0; i < 200; i++ {
		pos := w.spawnPosition()
		if distanceSq(pos, center) < centerExclusionRadius*centerExclusionRadius {
			t.Fatalf("spawn %d inside the exclusion zone: %+v", i, pos)
		}
	}
}

func TestSpawnKeepsDistanceFromLivingPlayers(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 40, Z: 40})

	for i := 0; i < 50; i++ {
		pos := w.spawnPosition()
		if distanceSq(pos, w.players[id].Position) < spawnMinDistance*spawnMinDistance {
			// The budgeted search may legitimately fall back to a close
			// spawn only when no clear candidate was found; with one
			// player on a wide map that never happens.
			t.Fatalf("spawn %d too close to a living player: %+v", i, pos)
		}
	}
}

func TestShellFlightScenario(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	a := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	b := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 66})
	w.players[b].Health = bulletDamage // lethal on arrival

	distance := 16.0
	if _, ok := w.ApplyFire(a, proto.Vector3{X: 50, Z: 50}, proto.Vector3{Z: 1}, now); !ok {
		t.Fatalf("shot rejected")
	}

	dt := tickDelta()
	ticksNeeded := int(math.Ceil(distance / (bulletSpeed * dt)))
	var hits []proto.PlayerHit
	current := now
	for tick := 1; tick <= ticksNeeded; tick++ {
		current = current.Add(time.Second / TickRate)
		result := w.Step(uint64(tick), current, dt)
		hits = append(hits, result.Hits...)
	}

	if len(hits) != 1 {
		t.Fatalf("expected the shell to land within %d ticks, got %d hits", ticksNeeded, len(hits))
	}
	if got := w.players[b].Health; got != 0 {
		t.Fatalf("B health = %d, want 0", got)
	}
	if got := w.players[a].Score; got != 1 {
		t.Fatalf("A score = %d, want 1 for the lethal hit", got)
	}
}

func TestBulletSkipsOwnerAndDeadPlayers(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	shooter := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	corpse := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 53})
	w.players[corpse].Alive = false
	w.players[corpse].Health = 0

	w.ApplyFire(shooter, proto.Vector3{X: 50, Z: 50}, proto.Vector3{Z: 1}, now)
	result := w.Step(1, now.Add(time.Second/TickRate), tickDelta())
	if len(result.Hits) != 0 {
		t.Fatalf("bullet must pass through its owner and dead tanks, got %+v", result.Hits)
	}
	if len(w.bullets) != 1 {
		t.Fatalf("bullet should keep flying")
	}
}

func TestCollisionArbitrationFollowsInsertionOrder(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	shooter := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})
	first := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 55})
	second := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 55})

	w.ApplyFire(shooter, proto.Vector3{X: 50, Z: 52}, proto.Vector3{Z: 1}, now)
	result := w.Step(1, now.Add(time.Second/TickRate), tickDelta())
	if len(result.Hits) != 1 {
		t.Fatalf("expected exactly one hit, got %d", len(result.Hits))
	}
	if result.Hits[0].TargetID != first {
		t.Fatalf("hit should go to the earliest-joined overlapping tank, got %s", result.Hits[0].TargetID)
	}
	if w.players[second].Health != tankMaxHealth {
		t.Fatalf("second overlapping tank must be untouched")
	}
}

func TestSnapshotIsPure(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})

	first := w.Snapshot(now)
	second := w.Snapshot(now)
	if len(first.Players) != len(second.Players) {
		t.Fatalf("snapshot mutated state")
	}
	for id, p := range first.Players {
		if second.Players[id] != p {
			t.Fatalf("snapshots differ for %s", id)
		}
	}
}
