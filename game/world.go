package game

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/MS-707/3DGame/internal/proto"
)

// World owns the authoritative game state: every tank and every shell in
// flight. All mutation happens through ApplyMove, ApplyFire and Step, each
// invoked on the single simulation timeline; nothing else writes these maps.
type World struct {
	players     map[string]*playerState
	playerOrder []string
	bullets     map[string]*bulletState
	bulletOrder []string

	config      WorldConfig
	rng         *rand.Rand
	nextID      uint64
	currentTick uint64
	logger      logr.Logger
}

// StepResult carries the events one tick produced, in the order they were
// resolved, so the gateway can fan them out on the same timeline.
type StepResult struct {
	Hits     []proto.PlayerHit
	Respawns []proto.PlayerRespawn
}

// NewWorld constructs an empty world with a deterministic RNG derived from
// the configured seed.
func NewWorld(cfg WorldConfig, logger logr.Logger) *World {
	normalized := cfg.normalized()
	return &World{
		players: make(map[string]*playerState),
		bullets: make(map[string]*bulletState),
		config:  normalized,
		rng:     newSeededRNG(normalized.Seed),
		logger:  logger,
	}
}

func newSeededRNG(seed string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// Config returns the normalized world configuration.
func (w *World) Config() WorldConfig {
	return w.config
}

// HasPlayer reports whether the world currently tracks the given player.
func (w *World) HasPlayer(id string) bool {
	_, ok := w.players[id]
	return ok
}

// AddPlayer registers a new tank at a freshly resolved spawn position and
// returns its public record.
func (w *World) AddPlayer(now time.Time) proto.PlayerSnapshot {
	w.nextID++
	id := fmt.Sprintf("player-%d", w.nextID)

	state := &playerState{
		PlayerSnapshot: proto.PlayerSnapshot{
			ID:        id,
			Position:  w.spawnPosition(),
			Health:    tankMaxHealth,
			MaxHealth: tankMaxHealth,
			Alive:     true,
		},
		lastHeartbeat: now,
	}
	w.players[id] = state
	w.playerOrder = append(w.playerOrder, id)
	return state.snapshot()
}

// RemovePlayer drops a tank from canonical state. Unknown ids are no-ops.
func (w *World) RemovePlayer(id string) bool {
	if _, ok := w.players[id]; !ok {
		return false
	}
	delete(w.players, id)
	for i, existing := range w.playerOrder {
		if existing == id {
			w.playerOrder = append(w.playerOrder[:i], w.playerOrder[i+1:]...)
			break
		}
	}
	return true
}

// ApplyMove overwrites a tank's transform with the client-reported values.
// Unknown or dead players are silent no-ops. Positions are clamped to the
// map bounds; beyond that the client is trusted unless the displacement-rate
// gate is enabled in the config.
func (w *World) ApplyMove(id string, position proto.Vector3, hullYaw, turretYaw float64, seq uint64, now time.Time) bool {
	state, ok := w.players[id]
	if !ok || !state.Alive {
		return false
	}

	position.X = clamp(position.X, 0, w.config.Width)
	position.Z = clamp(position.Z, 0, w.config.Depth)

	if w.config.MaxMoveSpeed > 0 && !state.lastMoveAt.IsZero() {
		elapsed := now.Sub(state.lastMoveAt).Seconds()
		if elapsed > 0 {
			allowed := w.config.MaxMoveSpeed * elapsed
			if distanceSq(state.Position, position) > allowed*allowed {
				w.logger.V(1).Info("rejecting implausible move", "player", id, "elapsed", elapsed)
				return false
			}
		}
	}

	state.Position = position
	state.HullYaw = hullYaw
	state.TurretYaw = turretYaw
	if seq > state.lastSeq {
		state.lastSeq = seq
	}
	state.lastMoveAt = now
	return true
}

// ApplyFire validates a fire request against the reload cooldown and, when
// accepted, spawns a shell owned by the player. The returned event carries
// the normalized direction actually applied.
func (w *World) ApplyFire(id string, position proto.Vector3, direction proto.Vector3, now time.Time) (proto.PlayerShot, bool) {
	state, ok := w.players[id]
	if !ok || !state.Alive {
		return proto.PlayerShot{}, false
	}
	if !state.lastFire.IsZero() && now.Sub(state.lastFire) < fireCooldown {
		return proto.PlayerShot{}, false
	}
	dir, ok := normalize(direction)
	if !ok {
		return proto.PlayerShot{}, false
	}

	state.lastFire = now

	bullet := &bulletState{
		BulletSnapshot: proto.BulletSnapshot{
			ID:        uuid.NewString(),
			OwnerID:   id,
			Position:  position,
			Direction: dir,
		},
		firedAt: now,
		damage:  bulletDamage,
	}
	w.bullets[bullet.ID] = bullet
	w.bulletOrder = append(w.bulletOrder, bullet.ID)

	return proto.PlayerShot{ID: id, Position: position, Direction: dir}, true
}

// Step advances every shell, resolves collisions and lifetimes, and revives
// tanks whose respawn timer has elapsed. Iteration follows the insertion
// order slices so collision arbitration is deterministic.
func (w *World) Step(tick uint64, now time.Time, dt float64) StepResult {
	if dt <= 0 {
		dt = 1.0 / float64(TickRate)
	}
	w.currentTick = tick

	var result StepResult

	surviving := w.bulletOrder[:0]
	for _, bulletID := range w.bulletOrder {
		bullet, ok := w.bullets[bulletID]
		if !ok {
			continue
		}

		bullet.Position = added(bullet.Position, scaled(bullet.Direction, bulletSpeed*dt))

		if bullet.expired(now) {
			delete(w.bullets, bulletID)
			continue
		}

		if hit, ok := w.resolveBulletHit(bullet, now); ok {
			result.Hits = append(result.Hits, hit)
			delete(w.bullets, bulletID)
			continue
		}

		surviving = append(surviving, bulletID)
	}
	w.bulletOrder = surviving

	for _, playerID := range w.playerOrder {
		state := w.players[playerID]
		if state.Alive || state.respawnDue.IsZero() || now.Before(state.respawnDue) {
			continue
		}
		state.Alive = true
		state.Health = tankMaxHealth
		state.Position = w.spawnPosition()
		state.respawnDue = time.Time{}
		result.Respawns = append(result.Respawns, proto.PlayerRespawn{
			ID:       playerID,
			Position: state.Position,
			Health:   state.Health,
		})
	}

	return result
}

// resolveBulletHit tests a shell against every living tank except its owner,
// in insertion order, and applies damage to the first one inside the hit
// radius.
func (w *World) resolveBulletHit(bullet *bulletState, now time.Time) (proto.PlayerHit, bool) {
	for _, playerID := range w.playerOrder {
		if playerID == bullet.OwnerID {
			continue
		}
		target := w.players[playerID]
		if !target.Alive {
			continue
		}
		if distanceSq(bullet.Position, target.Position) > hitRadiusSq {
			continue
		}

		killed := target.applyDamage(bullet.damage)
		if killed {
			target.respawnDue = now.Add(respawnDelay)
			if shooter, ok := w.players[bullet.OwnerID]; ok {
				shooter.Score++
			}
		}
		return proto.PlayerHit{
			TargetID: playerID,
			Damage:   bullet.damage,
			Health:   target.Health,
			Killed:   killed,
			KillerID: bullet.OwnerID,
		}, true
	}
	return proto.PlayerHit{}, false
}

// Snapshot projects canonical state into the broadcast form. It is pure:
// repeated calls without intervening mutation return equal values.
func (w *World) Snapshot(now time.Time) proto.GameState {
	players := make(map[string]proto.PlayerSnapshot, len(w.players))
	for id, state := range w.players {
		players[id] = state.snapshot()
	}
	bullets := make(map[string]proto.BulletSnapshot, len(w.bullets))
	for id, bullet := range w.bullets {
		bullets[id] = bullet.snapshot()
	}
	return proto.GameState{
		Tick:       w.currentTick,
		ServerTime: now.UnixMilli(),
		Players:    players,
		Bullets:    bullets,
	}
}

// spawnPosition searches for a spot far enough from every living tank and
// outside the central exclusion zone. The search is bounded: after the
// attempt budget it falls back to the best candidate seen (outside the
// exclusion zone but possibly close to another tank), and as a last resort
// to an unchecked random position. Bounded retry keeps spawning O(1) per
// player at the cost of an occasional close spawn.
func (w *World) spawnPosition() proto.Vector3 {
	var fallback proto.Vector3
	haveFallback := false

	for attempt := 0; attempt < spawnAttemptBudget; attempt++ {
		candidate := w.randomPosition()
		if w.insideCenterExclusion(candidate) {
			continue
		}
		if !haveFallback {
			fallback = candidate
			haveFallback = true
		}
		if w.clearOfLivingPlayers(candidate) {
			return candidate
		}
	}

	if haveFallback {
		return fallback
	}
	return w.randomPosition()
}

func (w *World) randomPosition() proto.Vector3 {
	return proto.Vector3{
		X: spawnMargin + w.rng.Float64()*(w.config.Width-2*spawnMargin),
		Y: 0,
		Z: spawnMargin + w.rng.Float64()*(w.config.Depth-2*spawnMargin),
	}
}

func (w *World) insideCenterExclusion(p proto.Vector3) bool {
	center := proto.Vector3{X: w.config.Width / 2, Y: 0, Z: w.config.Depth / 2}
	return distanceSq(p, center) < centerExclusionRadius*centerExclusionRadius
}

func (w *World) clearOfLivingPlayers(p proto.Vector3) bool {
	for _, state := range w.players {
		if !state.Alive {
			continue
		}
		if distanceSq(p, state.Position) < spawnMinDistance*spawnMinDistance {
			return false
		}
	}
	return true
}
