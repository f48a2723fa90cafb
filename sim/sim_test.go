package sim

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/plasma/config"
	"github.com/pthm-cable/plasma/particle"
)

func testConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	return cfg
}

const smallConfig = `
physics:
  dt: 0.2
species:
  - name: electron
    count: 2000
    charge: -1
    mass: 1
    thermal: 0.3
compress:
  workers: 4
  serial_threshold: 1
telemetry:
  stats_window: 2
  perf_collector_window: 4
`

func TestLoadFillsStore(t *testing.T) {
	spCfg := config.SpeciesConfig{
		Name: "electron", Count: 5000, Charge: -1, Mass: 1,
		Thermal: 0.1, Drift: 0.5,
	}
	sp := NewSpecies(spCfg)
	sp.Load(spCfg, rand.NewPCG(1, 2))

	if sp.Np != 5000 {
		t.Fatalf("Np = %d, want 5000", sp.Np)
	}

	var sumUx float64
	for i := int32(0); i < sp.Np; i++ {
		if sp.Store.Dx[i] < -1 || sp.Store.Dx[i] > 1 {
			t.Fatalf("particle %d loaded outside the cell: dx = %v", i, sp.Store.Dx[i])
		}
		if sp.Store.ID[i] != i {
			t.Fatalf("particle %d id = %d, want sequential", i, sp.Store.ID[i])
		}
		if sp.Store.W[i] != 1 {
			t.Fatalf("particle %d weight = %v, want 1", i, sp.Store.W[i])
		}
		sumUx += float64(sp.Store.Ux[i])
	}

	// Sample mean of the drifting Maxwellian: sigma/sqrt(n) ~ 0.0014.
	meanUx := sumUx / float64(sp.Np)
	if math.Abs(meanUx-0.5) > 0.02 {
		t.Errorf("mean ux = %v, want ~0.5 drift", meanUx)
	}
}

func TestAdvanceFindsLeavers(t *testing.T) {
	spCfg := config.SpeciesConfig{Name: "e", Count: 6, Charge: -1, Mass: 1}
	sp := NewSpecies(spCfg)
	for i := int32(0); i < 6; i++ {
		sp.Store.SetSlot(i, particle.Particle{ID: i, W: 1})
	}
	// Slots 1 and 4 step across the cell boundary, everyone else stays.
	sp.Store.Dx[1] = 0.95
	sp.Store.Ux[1] = 1.0
	sp.Store.Dy[4] = -0.95
	sp.Store.Uy[4] = -1.0
	sp.Store.Ux[0] = 0.1
	sp.Np = 6

	sp.Advance(0.1, nil)

	movers := sp.Movers()
	if len(movers) != 2 {
		t.Fatalf("movers = %v, want slots 1 and 4", movers)
	}
	found := map[int32]bool{}
	for _, m := range movers {
		if found[m] {
			t.Fatalf("duplicate mover %d", m)
		}
		found[m] = true
	}
	if !found[1] || !found[4] {
		t.Errorf("movers = %v, want slots 1 and 4", movers)
	}

	// Positions advanced for everyone, including the stayers.
	if math.Abs(float64(sp.Store.Dx[0])-0.01) > 1e-6 {
		t.Errorf("dx[0] = %v, want 0.01", sp.Store.Dx[0])
	}
}

func TestStepKeepsDensePrefix(t *testing.T) {
	cfg := testConfig(t, smallConfig)
	s, err := New(cfg, Options{Seed: 12345})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	sp := s.Species()[0]
	initial := sp.Np
	ctx := context.Background()

	for step := 0; step < 5; step++ {
		prevNp := sp.Np
		if err := s.Step(ctx); err != nil {
			t.Fatalf("Step() error at tick %d: %v", step, err)
		}

		if sp.Np != prevNp-sp.Nm() {
			t.Fatalf("Np = %d after %d movers left %d live", sp.Np, sp.Nm(), prevNp)
		}

		seen := make(map[int32]bool, sp.Np)
		for i := int32(0); i < sp.Np; i++ {
			id := sp.Store.ID[i]
			if id < 0 || id >= initial {
				t.Fatalf("live slot %d holds foreign id %d", i, id)
			}
			if seen[id] {
				t.Fatalf("id %d duplicated in live prefix at tick %d", id, step)
			}
			seen[id] = true

			// Survivors never crossed the boundary; a stale gap record
			// in the live prefix would show up as an escaped position.
			if sp.Store.Dx[i] < -1 || sp.Store.Dx[i] > 1 ||
				sp.Store.Dy[i] < -1 || sp.Store.Dy[i] > 1 ||
				sp.Store.Dz[i] < -1 || sp.Store.Dz[i] > 1 {
				t.Fatalf("live slot %d escaped the cell at tick %d", i, step)
			}
		}
	}

	if s.Tick() != 5 {
		t.Errorf("Tick() = %d, want 5", s.Tick())
	}
	if s.LiveParticles() != int(sp.Np) {
		t.Errorf("LiveParticles() = %d, want %d", s.LiveParticles(), sp.Np)
	}
}

func TestStepWritesOutput(t *testing.T) {
	cfg := testConfig(t, smallConfig)
	outDir := t.TempDir()

	s, err := New(cfg, Options{Seed: 7, OutputDir: outDir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx := context.Background()
	for step := 0; step < 4; step++ {
		if err := s.Step(ctx); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
