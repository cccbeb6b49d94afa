package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/events/bus"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/internal/core/sim"
	"github.com/outpost-rts/outpost/internal/server"
	"github.com/outpost-rts/outpost/pkg/geom"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "config file (.yaml or .json); defaults apply when empty")
		listenAddr = flag.String("listen", "", "spectator listen address; empty disables the spectator server")
		difficulty = flag.String("difficulty", "normal", "AI difficulty: easy, normal, hard")
		timeLimit  = flag.Duration("time-limit", 15*time.Minute, "match time limit")
	)
	flag.Parse()

	logger := log.New(log.LevelInfo)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	engine, err := sim.NewEngine(cfg, bus.New(), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating engine:", err)
		os.Exit(1)
	}
	if err := setupMatch(engine, cfg, *difficulty); err != nil {
		fmt.Fprintln(os.Stderr, "Error setting up match:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeLimit)
	defer cancel()

	var spectator *server.Spectator
	if *listenAddr != "" {
		scfg := server.DefaultConfig()
		scfg.ListenAddr = *listenAddr
		spectator, err = server.NewSpectator(engine, scfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error creating spectator server:", err)
			os.Exit(1)
		}
		if err := spectator.Start(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error starting spectator server:", err)
			os.Exit(1)
		}
		defer spectator.Close()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(ctx)
	})
	g.Go(func() error {
		return watchElimination(ctx, engine, logger, cancel)
	})

	if err := g.Wait(); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintln(os.Stderr, "Match aborted:", err)
		os.Exit(1)
	}
	logger.Info("Match finished", log.Uint64("ticks", engine.Tick()))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		return &cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if filepath.Ext(path) == ".json" {
		return config.LoadJSON(f)
	}
	return config.LoadYAML(f)
}

// setupMatch seeds two AI players in opposite corners with a mineral field
// next to each base and a contested field in the middle.
func setupMatch(engine *sim.Engine, cfg *config.Config, difficulty string) error {
	margin := 400.0
	spots := []struct {
		player  game.PlayerID
		faction string
		base    geom.Vec2
	}{
		{1, "vanguard", geom.Vec2{X: margin, Y: margin}},
		{2, "legion", geom.Vec2{X: cfg.MapWidth - margin, Y: cfg.MapHeight - margin}},
	}
	for _, s := range spots {
		if err := engine.AddPlayer(s.player, s.faction, difficulty, s.base, true); err != nil {
			return err
		}
		field := geom.Vec2{X: s.base.X, Y: s.base.Y + 220}
		engine.SpawnResourceField(field, 6, 1500, 5)
	}
	center := geom.Vec2{X: cfg.MapWidth / 2, Y: cfg.MapHeight / 2}
	engine.SpawnResourceField(center, 8, 2500, 5)
	return nil
}

// watchElimination polls for a player left with nothing and ends the match.
func watchElimination(ctx context.Context, engine *sim.Engine, logger log.Log, cancel context.CancelFunc) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	players := []game.PlayerID{1, 2}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			store := engine.Store()
			for _, p := range players {
				if len(store.UnitsOwnedBy(p)) == 0 && len(store.BuildingsOwnedBy(p)) == 0 {
					logger.Info("Player eliminated",
						log.Int("player", int(p)),
						log.Uint64("tick", engine.Tick()))
					cancel()
					return nil
				}
			}
		}
	}
}
