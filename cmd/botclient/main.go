package main

import (
	"context"
	"flag"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/MS-707/3DGame/client"
	"github.com/MS-707/3DGame/internal/proto"
)

// botclient drives headless synchronization-layer clients against a running
// server: each bot circles the arena, fires periodically, and logs what it
// hears back. Useful for soak-testing broadcast fan-out and the resilience
// paths (pair with -drop-rate).
func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Game server base URL")
	bots := flag.Int("bots", 4, "Number of concurrent bots")
	duration := flag.Duration("duration", time.Minute, "How long to run")
	dropRate := flag.Float64("drop-rate", 0, "Artificial outbound drop probability")
	sendDelay := flag.Duration("send-delay", 0, "Artificial delay before each send")
	flag.Parse()

	zapLog, err := zap.NewDevelopment()
	if err != nil {
		log.Panic(err)
	}
	defer zapLog.Sync()
	logger := zapr.NewLogger(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < *bots; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			runBot(ctx, client.Options{
				ServerURL:      *serverURL,
				Logger:         logger.WithName("bot").WithValues("n", n),
				DebugDropRate:  *dropRate,
				DebugSendDelay: *sendDelay,
			})
		}(i)
	}
	wg.Wait()
}

func runBot(ctx context.Context, opts client.Options) {
	c := client.New(opts)
	if err := c.Connect(ctx); err != nil {
		opts.Logger.Error(err, "bot failed to connect")
		return
	}
	defer c.Close()

	go drainEvents(ctx, c, opts)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	center := proto.Vector3{X: 120, Z: 120}
	radius := 40 + rng.Float64()*40
	angle := rng.Float64() * 2 * math.Pi

	input := time.NewTicker(50 * time.Millisecond)
	defer input.Stop()
	fire := time.NewTicker(time.Second + time.Duration(rng.Intn(1500))*time.Millisecond)
	defer fire.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-input.C:
			angle += 0.05
			pos := proto.Vector3{
				X: center.X + math.Cos(angle)*radius,
				Z: center.Z + math.Sin(angle)*radius,
			}
			c.SendInput(client.InputState{
				Position: pos,
				HullYaw:  angle + math.Pi/2,
			})
		case <-fire.C:
			dir := proto.Vector3{X: -math.Cos(angle), Z: -math.Sin(angle)}
			if err := c.SendFire(proto.Vector3{X: center.X + math.Cos(angle)*radius, Z: center.Z + math.Sin(angle)*radius}, dir); err != nil {
				opts.Logger.V(1).Info("fire failed", "err", err.Error())
			}
		}
	}
}

func drainEvents(ctx context.Context, c *client.Client, opts client.Options) {
	var states, hits int
	report := time.NewTicker(10 * time.Second)
	defer report.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.Events():
			switch ev.Kind {
			case client.EventState:
				states++
			case client.EventHit:
				hits++
			case client.EventStatus:
				opts.Logger.Info("connection status", "state", ev.Status.String())
			}
		case <-report.C:
			opts.Logger.Info("bot report", "player", c.PlayerID(), "snapshots", states, "hits", hits, "rttMillis", c.Latency().Milliseconds(), "pending", c.Pending())
		}
	}
}
