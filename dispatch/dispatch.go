// Package dispatch provides the data-parallel executor used by the
// compaction phases: a persistent worker pool with parallel-for semantics
// and an explicit completion barrier, plus a lock-free bounded append list.
package dispatch

import "runtime"

// defaultSerialThreshold is the minimum iteration count to use parallel
// processing. Below this, single-threaded is faster due to goroutine
// overhead.
const defaultSerialThreshold = 64

// chunk represents a range of iterations for a worker to process.
type chunk struct {
	start, end int
	fn         func(i int)
	done       chan<- struct{}
}

// Pool runs independent loop iterations across persistent worker
// goroutines. Run does not return until every iteration has completed, so
// back-to-back Run calls are fully ordered with respect to each other.
// Concurrent Run calls from different goroutines share the workers safely.
type Pool struct {
	workers   int
	threshold int

	workChan chan chunk
	stopChan chan struct{}
}

// NewPool creates a pool with the given worker count and serial threshold.
// Zero or negative values select GOMAXPROCS workers and the default
// threshold.
func NewPool(workers, serialThreshold int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if serialThreshold <= 0 {
		serialThreshold = defaultSerialThreshold
	}

	p := &Pool{
		workers:   workers,
		threshold: serialThreshold,
		workChan:  make(chan chunk, workers),
		stopChan:  make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	for {
		select {
		case <-p.stopChan:
			return
		case c, ok := <-p.workChan:
			if !ok {
				return
			}
			for i := c.start; i < c.end; i++ {
				c.fn(i)
			}
			c.done <- struct{}{}
		}
	}
}

// Run invokes fn(i) for every i in [0, n) and returns once all calls have
// completed. Iterations are unordered and may execute concurrently; fn must
// be safe under arbitrary interleaving. A nil pool runs everything on the
// calling goroutine.
func (p *Pool) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.workers == 1 || n < p.threshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunkSize := (n + p.workers - 1) / p.workers
	done := make(chan struct{}, p.workers)

	dispatched := 0
	for w := 0; w < p.workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			break
		}
		p.workChan <- chunk{start: start, end: end, fn: fn, done: done}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-done
	}
}

// Workers returns the pool's worker count.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Close stops the workers. Run must not be called after Close.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.stopChan)
}
