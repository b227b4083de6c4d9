package game

import (
	"sync/atomic"
	"time"
)

// telemetryCounters collects cheap operational numbers for the diagnostics
// endpoint. All fields are atomics so the tick loop never blocks on them.
type telemetryCounters struct {
	bytesSent          atomic.Uint64
	framesSent         atomic.Uint64
	framesDropped      atomic.Uint64
	commandsDropped    atomic.Uint64
	tickDurationMillis atomic.Int64
}

// TelemetrySnapshot is the diagnostics projection of the counters.
type TelemetrySnapshot struct {
	BytesSent          uint64 `json:"bytesSent"`
	FramesSent         uint64 `json:"framesSent"`
	FramesDropped      uint64 `json:"framesDropped"`
	CommandsDropped    uint64 `json:"commandsDropped"`
	TickDurationMillis int64  `json:"tickDurationMillis"`
}

func (t *telemetryCounters) RecordSend(bytes int) {
	if bytes < 0 {
		return
	}
	t.bytesSent.Add(uint64(bytes))
	t.framesSent.Add(1)
}

func (t *telemetryCounters) RecordDroppedFrame() {
	t.framesDropped.Add(1)
}

func (t *telemetryCounters) RecordDroppedCommand() {
	t.commandsDropped.Add(1)
}

func (t *telemetryCounters) RecordTickDuration(d time.Duration) {
	t.tickDurationMillis.Store(d.Milliseconds())
}

func (t *telemetryCounters) Snapshot() TelemetrySnapshot {
	return TelemetrySnapshot{
		BytesSent:          t.bytesSent.Load(),
		FramesSent:         t.framesSent.Load(),
		FramesDropped:      t.framesDropped.Load(),
		CommandsDropped:    t.commandsDropped.Load(),
		TickDurationMillis: t.tickDurationMillis.Load(),
	}
}
