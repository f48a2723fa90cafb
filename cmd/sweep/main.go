// Command sweep times the compaction kernel over a range of mover
// fractions on a fixed population and writes one CSV row per point.
package main

import (
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/plasma/dispatch"
	"github.com/pthm-cable/plasma/particle"
)

type sweepRow struct {
	Np           int     `csv:"np"`
	Nm           int     `csv:"nm"`
	Frac         float64 `csv:"frac"`
	Iters        int     `csv:"iters"`
	AvgUs        int64   `csv:"avg_us"`
	MinUs        int64   `csv:"min_us"`
	MaxUs        int64   `csv:"max_us"`
	DeferredFrom int     `csv:"deferred_from"`
	DeferredTo   int     `csv:"deferred_to"`
}

func main() {
	np := flag.Int("np", 1<<20, "Particle count")
	fracList := flag.String("fracs", "0.0001,0.001,0.01,0.05,0.1", "Comma-separated mover fractions to sweep")
	iters := flag.Int("iters", 20, "Timed iterations per sweep point")
	workers := flag.Int("workers", 0, "Worker count (0 = GOMAXPROCS)")
	seed := flag.Uint64("seed", 1, "RNG seed")
	outPath := flag.String("out", "sweep.csv", "Output CSV path")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	fracs, err := parseFracs(*fracList)
	if err != nil {
		slog.Error("bad -fracs", "error", err)
		os.Exit(1)
	}

	pool := dispatch.NewPool(*workers, 0)
	defer pool.Close()

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	st := particle.NewStore(*np)
	for i := 0; i < *np; i++ {
		st.ID[i] = int32(i)
		st.W[i] = 1
	}

	rows := make([]sweepRow, 0, len(fracs))
	for _, frac := range fracs {
		nm := int(frac * float64(*np))
		if nm < 1 {
			nm = 1
		}
		if 2*nm > *np {
			slog.Warn("skipping fraction, gaps would exceed half the array", "frac", frac)
			continue
		}

		var total, minDur, maxDur time.Duration
		var last particle.CompressStats
		for it := 0; it < *iters; it++ {
			movers := randomMovers(rng, *np, nm)

			start := time.Now()
			stats, err := particle.Compress(st, movers, int32(*np), nil, pool)
			dur := time.Since(start)
			if err != nil {
				slog.Error("compress failed", "frac", frac, "error", err)
				os.Exit(1)
			}

			last = stats
			total += dur
			if it == 0 || dur < minDur {
				minDur = dur
			}
			if dur > maxDur {
				maxDur = dur
			}
		}

		rows = append(rows, sweepRow{
			Np:           *np,
			Nm:           nm,
			Frac:         frac,
			Iters:        *iters,
			AvgUs:        (total / time.Duration(*iters)).Microseconds(),
			MinUs:        minDur.Microseconds(),
			MaxUs:        maxDur.Microseconds(),
			DeferredFrom: int(last.DeferredFrom),
			DeferredTo:   int(last.DeferredTo),
		})

		slog.Info("sweep point done",
			"frac", frac,
			"nm", nm,
			"avg_us", rows[len(rows)-1].AvgUs,
		)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		slog.Error("creating output file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := gocsv.Marshal(&rows, f); err != nil {
		slog.Error("writing output", "error", err)
		os.Exit(1)
	}

	slog.Info("sweep written", "path", *outPath, "points", len(rows))
}

// randomMovers picks nm distinct slots out of [0, np).
func randomMovers(rng *rand.Rand, np, nm int) []int32 {
	perm := rng.Perm(np)
	movers := make([]int32, nm)
	for i := 0; i < nm; i++ {
		movers[i] = int32(perm[i])
	}
	return movers
}

func parseFracs(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	fracs := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		fracs = append(fracs, f)
	}
	return fracs, nil
}
