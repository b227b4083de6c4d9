package game

import "time"

const (
	// TickRate is the fixed simulation frequency in ticks per second.
	TickRate = 15

	writeWait         = 10 * time.Second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	tankMaxHealth = 100

	bulletSpeed    = 80.0 // world units per second
	bulletLifetime = 3 * time.Second
	bulletDamage   = 25
	hitRadius      = 4.0
	hitRadiusSq    = hitRadius * hitRadius

	fireCooldown = 800 * time.Millisecond
	respawnDelay = 5 * time.Second

	defaultWorldWidth = 240.0
	defaultWorldDepth = 240.0

	spawnMargin           = 10.0
	spawnMinDistance      = 30.0
	spawnAttemptBudget    = 24
	centerExclusionRadius = 25.0

	commandQueueCapacity = 1024
	perActorCommandLimit = 32

	subscriberSendBuffer = 64
)
