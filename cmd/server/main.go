package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MS-707/3DGame/game"
	gamenet "github.com/MS-707/3DGame/internal/net"
)

func newZap(logPath string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if logPath != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logPath)
	}
	return cfg.Build()
}

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	seed := flag.String("seed", "", "World seed (empty uses the default)")
	maxMoveSpeed := flag.Float64("max-move-speed", 0, "Reject client positions implying a higher speed; 0 trusts clients")
	logPath := flag.String("log-path", "", "Write logs to this file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}
	if v := os.Getenv("ARENA_ADDR"); v != "" && *addr == ":8080" {
		*addr = v
	}
	if v := os.Getenv("ARENA_SEED"); v != "" && *seed == "" {
		*seed = v
	}

	zapLog, err := newZap(*logPath)
	if err != nil {
		log.Panic(err)
	}
	defer zapLog.Sync()
	logger := zapr.NewLogger(zapLog)

	cfg := game.DefaultWorldConfig()
	cfg.Seed = *seed
	cfg.MaxMoveSpeed = *maxMoveSpeed

	hub := game.NewHub(cfg, logger.WithName("hub"))
	stop := make(chan struct{})
	go hub.RunSimulation(stop)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           gamenet.NewRouter(hub, logger.WithName("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		close(stop)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", "addr", *addr, "tickRate", game.TickRate)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(err, "server failed")
		os.Exit(1)
	}
}
