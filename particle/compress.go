package particle

import (
	"fmt"

	"github.com/pthm-cable/plasma/dispatch"
)

// CompressStats reports what a Compress call did, for telemetry.
type CompressStats struct {
	Movers       int32 // gaps filled or retired
	DeferredFrom int32 // tail sources relocated in the cleanup pass
	DeferredTo   int32 // destinations filled in the cleanup pass
}

// Compress backfills every gap named in movers with a particle pulled from
// the tail of the array, so that after the call the live population
// occupies slots [0, np-nm) densely. The caller owns the arrays and is
// expected to drop its live count by nm afterwards; slots [np-nm, np)
// become scratch space.
//
// movers entries must be pairwise distinct. Duplicates cause lost writes
// and are not detected (checking would cost O(np) scratch per call).
// Out-of-range entries and np < 2*nm are rejected up front.
//
// sp is opaque caller context carried for bookkeeping symmetry with the
// surrounding step; the kernel never inspects it.
//
// The kernel runs three parallel phases with a full barrier between them:
// classify which tail slots are themselves gaps, backfill gaps in reverse
// mover order (mirroring the serial reference ordering), then resolve the
// moves the backfill had to defer. The cleanup pass pairs the deferred
// source and destination lists by append position and does not re-check
// danger-zone safety of its sources.
func Compress(st *Store, movers []int32, np int32, sp any, pool *dispatch.Pool) (CompressStats, error) {
	_ = sp

	nm := int32(len(movers))
	if nm == 0 {
		return CompressStats{}, nil
	}
	if np < 0 || int(np) > st.Len() {
		return CompressStats{}, fmt.Errorf("compress: np=%d out of range for store of %d slots", np, st.Len())
	}
	if np < 2*nm {
		return CompressStats{}, fmt.Errorf("compress: np=%d < 2*nm=%d, tail scan cannot cover the gaps", np, 2*nm)
	}
	for _, pmi := range movers {
		if pmi < 0 || pmi >= np {
			return CompressStats{}, fmt.Errorf("compress: mover index %d out of range [0, %d)", pmi, np)
		}
	}

	// The last 2*nm slots may themselves be gaps; mark them so the
	// backfill never pulls a gap over a gap. unsafeTail is indexed by
	// reverse distance from the end: position 0 is slot np-1. Distinct
	// movers map to distinct cells, so the writes never contend.
	unsafeTail := make([]uint8, 2*nm)
	cutOff := np - 2*nm
	pool.Run(int(nm), func(i int) {
		pmi := movers[i]
		if pmi >= cutOff {
			unsafeTail[(np-1)-pmi] = 1
		}
	})

	// Moves that cannot be performed inline land on these two lists and
	// are finished after the backfill barrier.
	deferredFrom := dispatch.NewAppendList(int(nm))
	deferredTo := dispatch.NewAppendList(int(nm))
	dangerZone := np - nm

	pool.Run(int(nm), func(i int) {
		n := int32(i)

		// Tail particles are consumed inward from the very last slot, and
		// gaps in reverse mover order, to reproduce the serial reference
		// fill order.
		pullFrom := (np - 1) - n
		writeTo := movers[nm-1-n]

		// Already in place; also keeps danger-zone self-gaps off the
		// deferred lists.
		if pullFrom == writeTo {
			return
		}

		if writeTo >= dangerZone {
			// A gap above the live cut never needs filling. But the tail
			// particle this iteration would have moved there is now
			// stranded: if it is a real particle (not itself a gap), park
			// it for the cleanup pass to relocate.
			if pullFrom >= dangerZone && unsafeTail[(np-1)-pullFrom] == 0 {
				deferredFrom.Append(pullFrom)
			}
			return
		}

		if unsafeTail[n] != 0 {
			// The pull source is itself a gap. This destination still
			// needs a particle; pair it with a stranded source later.
			deferredTo.Append(writeTo)
			return
		}

		st.CopySlot(writeTo, pullFrom)
	})

	// Pool.Run barriers make the append counts and list contents visible
	// here. The two lists are paired by position; unequal lengths would
	// silently drop or misapply moves, so refuse to continue.
	fromLen := deferredFrom.Len()
	toLen := deferredTo.Len()
	if fromLen != toLen {
		return CompressStats{}, fmt.Errorf("compress: deferred source/destination counts diverged (%d vs %d)", fromLen, toLen)
	}

	pool.Run(fromLen, func(n int) {
		st.CopySlot(deferredTo.At(n), deferredFrom.At(n))
	})

	return CompressStats{
		Movers:       nm,
		DeferredFrom: int32(fromLen),
		DeferredTo:   int32(toLen),
	}, nil
}
