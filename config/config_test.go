package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Physics.DT != 0.05 {
		t.Errorf("dt = %v, want 0.05", cfg.Physics.DT)
	}
	if len(cfg.Species) != 2 {
		t.Fatalf("species count = %d, want 2", len(cfg.Species))
	}
	if cfg.Species[0].Name != "electron" || cfg.Species[1].Name != "ion" {
		t.Errorf("species = %q, %q, want electron, ion", cfg.Species[0].Name, cfg.Species[1].Name)
	}
	if cfg.Derived.TotalParticles != 2*65536 {
		t.Errorf("TotalParticles = %d, want %d", cfg.Derived.TotalParticles, 2*65536)
	}
	if cfg.Derived.SpeciesIndex["ion"] != 1 {
		t.Errorf("SpeciesIndex[ion] = %d, want 1", cfg.Derived.SpeciesIndex["ion"])
	}
	if cfg.Derived.Workers <= 0 {
		t.Errorf("Workers = %d, want > 0", cfg.Derived.Workers)
	}
	if cfg.Derived.DT32 != float32(0.05) {
		t.Errorf("DT32 = %v, want 0.05", cfg.Derived.DT32)
	}
}

func TestLoadOverride(t *testing.T) {
	path := writeTemp(t, `
physics:
  dt: 0.01
species:
  - name: positron
    count: 128
    charge: 1
    mass: 1
    thermal: 0.2
compress:
  workers: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Physics.DT != 0.01 {
		t.Errorf("dt = %v, want override 0.01", cfg.Physics.DT)
	}
	if len(cfg.Species) != 1 || cfg.Species[0].Name != "positron" {
		t.Errorf("species = %+v, want the single override species", cfg.Species)
	}
	if cfg.Derived.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Derived.Workers)
	}
	// Untouched sections keep their defaults.
	if cfg.Telemetry.StatsWindow != 60 {
		t.Errorf("stats_window = %d, want default 60", cfg.Telemetry.StatsWindow)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{"negative dt", "physics:\n  dt: -1\n", "dt"},
		{"zero count", "species:\n  - name: e\n    count: 0\n    mass: 1\n", "count"},
		{"zero mass", "species:\n  - name: e\n    count: 10\n    mass: 0\n", "mass"},
		{"duplicate names", "species:\n  - name: e\n    count: 10\n    mass: 1\n  - name: e\n    count: 10\n    mass: 1\n", "duplicate"},
		{"empty species", "species: []\n", "at least one species"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.body))
			if err == nil {
				t.Fatal("Load() accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() of missing file succeeded")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML() error: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of snapshot error: %v", err)
	}
	if again.Physics.DT != cfg.Physics.DT || len(again.Species) != len(cfg.Species) {
		t.Errorf("round trip changed config: %+v vs %+v", again, cfg)
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if Cfg() == nil {
		t.Fatal("Cfg() = nil after Init")
	}
}
