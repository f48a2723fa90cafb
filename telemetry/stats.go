package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated compaction statistics for a tick window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end, summed over species
	LiveParticles int `csv:"live_particles"`

	// Compaction work during the window
	MoversTotal  int `csv:"movers_total"`
	DeferredFrom int `csv:"deferred_from"`
	DeferredTo   int `csv:"deferred_to"`

	// Per-tick mover fraction (movers / live) distribution over the window
	MoverFracMean float64 `csv:"mover_frac_mean"`
	MoverFracP50  float64 `csv:"mover_frac_p50"`
	MoverFracP90  float64 `csv:"mover_frac_p90"`
	MoverFracMax  float64 `csv:"mover_frac_max"`
}

// LogStats logs the window via slog.
func (w WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", w.WindowEndTick,
		"sim_time", w.SimTimeSec,
		"live", w.LiveParticles,
		"movers", w.MoversTotal,
		"deferred_from", w.DeferredFrom,
		"deferred_to", w.DeferredTo,
		"mover_frac_mean", w.MoverFracMean,
		"mover_frac_p90", w.MoverFracP90,
	)
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFracStats calculates mean, p50, p90 and max from per-tick fractions.
func ComputeFracStats(values []float64) (mean, p50, p90, max float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
	}
	mean = sum / float64(n)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p50, p90, max
}
