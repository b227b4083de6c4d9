package game

import (
	"testing"
	"time"

	"github.com/MS-707/3DGame/internal/proto"
)

func TestRecordHeartbeatUnknownPlayer(t *testing.T) {
	w := newTestWorld()
	if _, ok := w.RecordHeartbeat("ghost", time.Now(), 0); ok {
		t.Fatalf("unknown player heartbeat should report false")
	}
}

func TestRecordHeartbeatDerivesRTT(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	id := addTestPlayer(t, w, now, proto.Vector3{X: 50, Z: 50})

	sent := now.Add(-40 * time.Millisecond)
	rtt, ok := w.RecordHeartbeat(id, now, sent.UnixMilli())
	if !ok {
		t.Fatalf("heartbeat for known player rejected")
	}
	if rtt < 39*time.Millisecond || rtt > 41*time.Millisecond {
		t.Fatalf("rtt = %v, want ~40ms", rtt)
	}

	// A client clock far in the future must not poison the RTT.
	rtt, _ = w.RecordHeartbeat(id, now, now.Add(time.Minute).UnixMilli())
	if rtt < 39*time.Millisecond || rtt > 41*time.Millisecond {
		t.Fatalf("future-clocked heartbeat changed rtt to %v", rtt)
	}
}

func TestStalePlayers(t *testing.T) {
	w := newTestWorld()
	now := time.Now()
	fresh := addTestPlayer(t, w, now, proto.Vector3{X: 40, Z: 40})
	quiet := addTestPlayer(t, w, now, proto.Vector3{X: 80, Z: 80})

	w.RecordHeartbeat(fresh, now.Add(disconnectAfter), 0)

	stale := w.StalePlayers(now.Add(disconnectAfter + time.Second))
	if len(stale) != 1 || stale[0] != quiet {
		t.Fatalf("stale = %v, want just %s", stale, quiet)
	}
}
