package sim

import "github.com/pthm-cable/plasma/dispatch"

// Advance pushes positions by momentum*dt and records every particle that
// leaves the unit cell as a mover. The mover's slot becomes a gap: in the
// full transport step its occupant is handed to a neighbor cell, so locally
// it only needs to be compacted away. Iterations write disjoint slots and
// append movers through the atomic list, so the scan parallelizes freely;
// entries come out distinct but unordered.
func (sp *Species) Advance(dt float32, pool *dispatch.Pool) {
	sp.movers.Reset()
	st := sp.Store

	pool.Run(int(sp.Np), func(i int) {
		dx := st.Dx[i] + st.Ux[i]*dt
		dy := st.Dy[i] + st.Uy[i]*dt
		dz := st.Dz[i] + st.Uz[i]*dt
		st.Dx[i] = dx
		st.Dy[i] = dy
		st.Dz[i] = dz

		if dx < -1 || dx > 1 || dy < -1 || dy > 1 || dz < -1 || dz > 1 {
			sp.movers.Append(int32(i))
		}
	})
}
