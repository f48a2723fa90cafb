// Package sim wires species containers, the advance step that discovers
// gaps, and the compaction kernel into a steppable simulation.
package sim

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/plasma/config"
	"github.com/pthm-cable/plasma/dispatch"
	"github.com/pthm-cable/plasma/particle"
)

// Species is one particle population: its storage, live count, and the
// mover list produced by the last advance. Live particles occupy slots
// [0, Np); slots above are scratch left behind by compaction.
type Species struct {
	Name   string
	Charge float64
	Mass   float64

	Store *particle.Store
	Np    int32

	movers       *dispatch.AppendList
	lastCompress particle.CompressStats
}

// NewSpecies allocates storage for a species from its config entry.
func NewSpecies(cfg config.SpeciesConfig) *Species {
	return &Species{
		Name:   cfg.Name,
		Charge: cfg.Charge,
		Mass:   cfg.Mass,
		Store:  particle.NewStore(cfg.Count),
		movers: dispatch.NewAppendList(cfg.Count),
	}
}

// Load fills the store with cfg.Count particles: uniform positions within
// the cell, Maxwellian momenta around the drift, unit weights, sequential
// ids.
func (sp *Species) Load(cfg config.SpeciesConfig, src rand.Source) {
	pos := distuv.Uniform{Min: -1, Max: 1, Src: src}
	along := distuv.Normal{Mu: cfg.Drift, Sigma: cfg.Thermal, Src: src}
	perp := distuv.Normal{Mu: 0, Sigma: cfg.Thermal, Src: src}

	st := sp.Store
	for i := 0; i < cfg.Count; i++ {
		st.Dx[i] = float32(pos.Rand())
		st.Dy[i] = float32(pos.Rand())
		st.Dz[i] = float32(pos.Rand())
		st.Ux[i] = float32(along.Rand())
		st.Uy[i] = float32(perp.Rand())
		st.Uz[i] = float32(perp.Rand())
		st.W[i] = 1
		st.ID[i] = int32(i)
	}
	sp.Np = int32(cfg.Count)
}

// Movers returns the gap slots found by the last Advance. Entries are
// distinct but unordered.
func (sp *Species) Movers() []int32 {
	return sp.movers.Slice()
}

// Nm returns the gap count from the last Advance.
func (sp *Species) Nm() int32 {
	return int32(sp.movers.Len())
}

// LastCompress returns what the last CompactStep did.
func (sp *Species) LastCompress() particle.CompressStats {
	return sp.lastCompress
}

// CompactStep backfills the gaps found by the last Advance and drops the
// live count accordingly.
func (sp *Species) CompactStep(pool *dispatch.Pool) error {
	movers := sp.movers.Slice()
	stats, err := particle.Compress(sp.Store, movers, sp.Np, sp, pool)
	if err != nil {
		return fmt.Errorf("species %s: %w", sp.Name, err)
	}
	sp.lastCompress = stats
	sp.Np -= int32(len(movers))
	return nil
}
