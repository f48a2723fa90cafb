// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Species   []SpeciesConfig `yaml:"species"`
	Compress  CompressConfig  `yaml:"compress"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds simulation step parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // timestep in normalized units
}

// SpeciesConfig defines one particle population.
type SpeciesConfig struct {
	Name    string  `yaml:"name"`
	Count   int     `yaml:"count"`   // particles loaded at startup
	Charge  float64 `yaml:"charge"`  // in units of e
	Mass    float64 `yaml:"mass"`    // in units of electron mass
	Thermal float64 `yaml:"thermal"` // Maxwellian momentum spread (sigma)
	Drift   float64 `yaml:"drift"`   // bulk drift momentum along x
}

// CompressConfig holds compaction dispatch parameters.
type CompressConfig struct {
	Workers         int `yaml:"workers"`          // parallel workers (0 = GOMAXPROCS)
	SerialThreshold int `yaml:"serial_threshold"` // below this many iterations, run single-threaded
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // ticks per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"` // ticks averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32        // Physics.DT as float32
	Workers        int            // effective compress worker count
	TotalParticles int            // sum of species counts
	SpeciesIndex   map[string]int // name -> index for species lookup
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the simulation cannot run with.
func (c *Config) validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("config: physics.dt must be positive, got %v", c.Physics.DT)
	}
	if len(c.Species) == 0 {
		return fmt.Errorf("config: at least one species is required")
	}
	seen := make(map[string]bool, len(c.Species))
	for i := range c.Species {
		sp := &c.Species[i]
		if sp.Name == "" {
			return fmt.Errorf("config: species[%d] has no name", i)
		}
		if seen[sp.Name] {
			return fmt.Errorf("config: duplicate species name %q", sp.Name)
		}
		seen[sp.Name] = true
		if sp.Count <= 0 {
			return fmt.Errorf("config: species %q count must be positive, got %d", sp.Name, sp.Count)
		}
		if sp.Mass <= 0 {
			return fmt.Errorf("config: species %q mass must be positive, got %v", sp.Name, sp.Mass)
		}
		if sp.Thermal < 0 {
			return fmt.Errorf("config: species %q thermal spread must be non-negative, got %v", sp.Name, sp.Thermal)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)

	c.Derived.Workers = c.Compress.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}

	c.Derived.TotalParticles = 0
	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	for i := range c.Species {
		c.Derived.TotalParticles += c.Species[i].Count
		c.Derived.SpeciesIndex[c.Species[i].Name] = i
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
