package game

import "time"

// RecordHeartbeat stores the latest heartbeat time and derives an RTT from
// the client-reported send time. Unknown players are no-ops.
func (w *World) RecordHeartbeat(id string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	state, ok := w.players[id]
	if !ok {
		return 0, false
	}

	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		// Guard against clients with clocks running far ahead of ours.
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}
	return state.lastRTT, true
}

// StalePlayers returns the ids of players whose last heartbeat is older than
// the disconnect window.
func (w *World) StalePlayers(now time.Time) []string {
	var stale []string
	for _, id := range w.playerOrder {
		state := w.players[id]
		if state.lastHeartbeat.IsZero() {
			continue
		}
		if now.Sub(state.lastHeartbeat) > disconnectAfter {
			stale = append(stale, id)
		}
	}
	return stale
}
