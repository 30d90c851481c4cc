package gacha

import (
	"errors"
	"math"
	"sort"

	"github.com/xtding233/gacha-scout/internal/card"
)

var ErrUnreachable = errors.New("rarity unreachable with this table")

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64
	Var    float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// SimulateFrequencies rolls t trials times and returns the empirical share
// of every rarity on the ladder.
func SimulateFrequencies(t RarityTable, guaranteedRare bool, trials int, rng RandomSource) map[card.Rarity]float64 {
	out := make(map[card.Rarity]float64, len(card.Ladder))
	for _, r := range card.Ladder {
		out[r] = 0
	}
	if trials <= 0 {
		return out
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	s := NewSampler(t)
	counts := make(map[card.Rarity]int, len(card.Ladder))
	for i := 0; i < trials; i++ {
		counts[s.Roll(rng.Float64(), guaranteedRare)]++
	}
	for r, c := range counts {
		out[r] = float64(c) / float64(trials)
	}
	return out
}

// SimulateDrawsUntil records, per trial, how many single rolls it took to
// get a card of rarity atLeast or better.
func SimulateDrawsUntil(t RarityTable, atLeast card.Rarity, trials int, rng RandomSource) (Stats, error) {
	var mass float64
	for r, p := range t {
		if r >= atLeast {
			mass += p
		}
	}
	if mass <= 0 {
		return Stats{}, ErrUnreachable
	}
	if trials <= 0 {
		return Stats{}, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	s := NewSampler(t)
	samples := make([]int, trials)
	for i := range samples {
		draws := 1
		for s.Roll(rng.Float64(), false) < atLeast {
			draws++
		}
		samples[i] = draws
	}
	return calcStats(samples), nil
}
