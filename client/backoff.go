package client

import "time"

// reconnectDelay returns the wait before reconnect attempt n (0-based):
// base doubled per attempt, capped at max.
func reconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = defaultReconnectBaseDelay
	}
	if max <= 0 {
		max = defaultReconnectMaxDelay
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
