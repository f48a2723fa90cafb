package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/plasma/config"
	"github.com/pthm-cable/plasma/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 1000, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	s, err := sim.New(cfg, sim.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"species", len(cfg.Species),
		"particles", cfg.Derived.TotalParticles,
		"workers", cfg.Derived.Workers,
		"max_ticks", *maxTicks,
	)

	ctx := context.Background()
	for *maxTicks == 0 || int(s.Tick()) < *maxTicks {
		if err := s.Step(ctx); err != nil {
			slog.Error("step failed", "tick", s.Tick(), "error", err)
			os.Exit(1)
		}
	}

	slog.Info("max ticks reached",
		"tick", s.Tick(),
		"live_particles", s.LiveParticles(),
	)
}
