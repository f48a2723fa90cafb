// Package particle implements structure-of-arrays particle storage and the
// parallel gap-compaction kernel that keeps a species' live population
// dense after an advance step knocks particles out of their cells.
package particle

// Particle is a scalar view of one storage slot, used for loading and
// inspection. Hot paths operate on the Store planes directly.
type Particle struct {
	Dx, Dy, Dz float32 // position offsets within the owning cell
	Ux, Uy, Uz float32 // normalized momentum
	W          float32 // statistical weight
	ID         int32
}

// Store holds particle state in structure-of-arrays layout: one contiguous
// plane per scalar field, indexed by a shared slot position, plus a
// separate id plane. The id plane is kept apart from the float planes so
// cell lookups don't drag momentum data through the cache.
type Store struct {
	Dx, Dy, Dz []float32
	Ux, Uy, Uz []float32
	W          []float32
	ID         []int32
}

// NewStore allocates a store with n slots, all zeroed.
func NewStore(n int) *Store {
	return &Store{
		Dx: make([]float32, n),
		Dy: make([]float32, n),
		Dz: make([]float32, n),
		Ux: make([]float32, n),
		Uy: make([]float32, n),
		Uz: make([]float32, n),
		W:  make([]float32, n),
		ID: make([]int32, n),
	}
}

// Len returns the slot count.
func (s *Store) Len() int {
	return len(s.W)
}

// CopySlot copies all seven scalar fields and the id from src to dst.
func (s *Store) CopySlot(dst, src int32) {
	s.Dx[dst] = s.Dx[src]
	s.Dy[dst] = s.Dy[src]
	s.Dz[dst] = s.Dz[src]
	s.Ux[dst] = s.Ux[src]
	s.Uy[dst] = s.Uy[src]
	s.Uz[dst] = s.Uz[src]
	s.W[dst] = s.W[src]
	s.ID[dst] = s.ID[src]
}

// Slot returns a scalar copy of slot i.
func (s *Store) Slot(i int32) Particle {
	return Particle{
		Dx: s.Dx[i], Dy: s.Dy[i], Dz: s.Dz[i],
		Ux: s.Ux[i], Uy: s.Uy[i], Uz: s.Uz[i],
		W:  s.W[i],
		ID: s.ID[i],
	}
}

// SetSlot stores p into slot i.
func (s *Store) SetSlot(i int32, p Particle) {
	s.Dx[i] = p.Dx
	s.Dy[i] = p.Dy
	s.Dz[i] = p.Dz
	s.Ux[i] = p.Ux
	s.Uy[i] = p.Uy
	s.Uz[i] = p.Uz
	s.W[i] = p.W
	s.ID[i] = p.ID
}
