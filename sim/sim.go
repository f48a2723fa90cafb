package sim

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/plasma/config"
	"github.com/pthm-cable/plasma/dispatch"
	"github.com/pthm-cable/plasma/telemetry"
)

// Options configures a simulation run.
type Options struct {
	Seed      uint64
	LogStats  bool
	OutputDir string // empty disables CSV output
}

// Sim steps a set of species through advance and compaction phases.
type Sim struct {
	cfg     *config.Config
	species []*Species
	pool    *dispatch.Pool

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	out       *telemetry.OutputManager
	logStats  bool

	tick int32
}

// New builds a simulation from the config: allocates the worker pool, loads
// every species, and opens CSV output if requested.
func New(cfg *config.Config, opts Options) (*Sim, error) {
	pool := dispatch.NewPool(cfg.Derived.Workers, cfg.Compress.SerialThreshold)

	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	species := make([]*Species, 0, len(cfg.Species))
	for i := range cfg.Species {
		sp := NewSpecies(cfg.Species[i])
		sp.Load(cfg.Species[i], src)
		species = append(species, sp)
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := out.WriteConfig(cfg); err != nil {
		pool.Close()
		out.Close()
		return nil, err
	}

	return &Sim{
		cfg:       cfg,
		species:   species,
		pool:      pool,
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
		out:       out,
		logStats:  opts.LogStats,
	}, nil
}

// Tick returns the number of completed steps.
func (s *Sim) Tick() int32 {
	return s.tick
}

// Species returns the simulated species.
func (s *Sim) Species() []*Species {
	return s.species
}

// LiveParticles returns the live count summed over species.
func (s *Sim) LiveParticles() int {
	total := 0
	for _, sp := range s.species {
		total += int(sp.Np)
	}
	return total
}

// Step runs one tick: advance every species, compact each species' array
// (species compact concurrently; each compaction fans out over the shared
// pool), then account telemetry and flush windows.
func (s *Sim) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dt := s.cfg.Derived.DT32
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseAdvance)
	for _, sp := range s.species {
		sp.Advance(dt, s.pool)
	}

	s.perf.StartPhase(telemetry.PhaseCompress)
	var g errgroup.Group
	for _, sp := range s.species {
		g.Go(func() error {
			return sp.CompactStep(s.pool)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	live, movers, dFrom, dTo := 0, 0, 0, 0
	for _, sp := range s.species {
		live += int(sp.Np)
		movers += int(sp.lastCompress.Movers)
		dFrom += int(sp.lastCompress.DeferredFrom)
		dTo += int(sp.lastCompress.DeferredTo)
	}
	s.collector.RecordTick(live, movers, dFrom, dTo)
	s.perf.EndTick()
	s.tick++

	if s.collector.ShouldFlush(s.tick) {
		stats := s.collector.Flush(s.tick)
		perfStats := s.perf.Stats()
		if s.logStats {
			stats.LogStats()
			perfStats.LogStats()
		}
		if err := s.out.WriteTelemetry(stats); err != nil {
			return err
		}
		if err := s.out.WritePerf(perfStats, s.tick); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the worker pool and output files.
func (s *Sim) Close() error {
	s.pool.Close()
	return s.out.Close()
}
