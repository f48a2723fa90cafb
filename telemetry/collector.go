package telemetry

// Collector accumulates per-tick compaction results within tick windows and
// produces WindowStats.
type Collector struct {
	windowTicks int32
	dt          float32

	// Current window tracking
	windowStartTick int32

	// Accumulators for current window
	moversTotal  int
	deferredFrom int
	deferredTo   int
	moverFracs   []float64
	lastLive     int
}

// NewCollector creates a new stats collector.
// windowTicks: ticks per stats window. dt: seconds per tick.
func NewCollector(windowTicks int, dt float32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: int32(windowTicks),
		dt:          dt,
		moverFracs:  make([]float64, 0, windowTicks),
	}
}

// RecordTick records one tick's compaction totals summed over species.
// live is the live particle count after compaction.
func (c *Collector) RecordTick(live, movers, deferredFrom, deferredTo int) {
	c.moversTotal += movers
	c.deferredFrom += deferredFrom
	c.deferredTo += deferredTo
	c.lastLive = live

	frac := 0.0
	if live+movers > 0 {
		frac = float64(movers) / float64(live+movers)
	}
	c.moverFracs = append(c.moverFracs, frac)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces the stats for the closing window and resets the
// accumulators for the next one.
func (c *Collector) Flush(currentTick int32) WindowStats {
	mean, p50, p90, max := ComputeFracStats(c.moverFracs)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),
		LiveParticles:   c.lastLive,
		MoversTotal:     c.moversTotal,
		DeferredFrom:    c.deferredFrom,
		DeferredTo:      c.deferredTo,
		MoverFracMean:   mean,
		MoverFracP50:    p50,
		MoverFracP90:    p90,
		MoverFracMax:    max,
	}

	c.windowStartTick = currentTick
	c.moversTotal = 0
	c.deferredFrom = 0
	c.deferredTo = 0
	c.moverFracs = c.moverFracs[:0]

	return stats
}
