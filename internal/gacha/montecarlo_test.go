package gacha_test

import (
	"errors"
	"math"
	"testing"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/gacha"
)

func TestSimulateFrequencies(t *testing.T) {
	freq := gacha.SimulateFrequencies(honour, false, 100000, gacha.NewSeededRNG(42))
	for _, r := range card.Ladder {
		if diff := math.Abs(freq[r] - honour[r]); diff > 0.01 {
			t.Errorf("%v: got %f want %f", r, freq[r], honour[r])
		}
	}
	guaranteed := gacha.SimulateFrequencies(honour, true, 10000, gacha.NewSeededRNG(42))
	if guaranteed[card.R] != 0 || guaranteed[card.N] != 0 {
		t.Fatalf("guaranteed rolls produced R/N: %v", guaranteed)
	}
}

func TestSimulateDrawsUntilSR(t *testing.T) {
	stats, err := gacha.SimulateDrawsUntil(honour, card.SR, 20000, gacha.NewSeededRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	// Geometric with p = 0.2: mean 5.
	if math.Abs(stats.Mean-5) > 0.2 {
		t.Fatalf("mean=%f, want about 5", stats.Mean)
	}
	if stats.P50 > stats.P90 || stats.P90 > stats.P99 {
		t.Fatalf("percentiles out of order: %+v", stats)
	}
}

func TestSimulateDrawsUntilUnreachable(t *testing.T) {
	regular := gacha.RarityTable{card.N: 0.95, card.R: 0.05}
	if _, err := gacha.SimulateDrawsUntil(regular, card.SR, 10, nil); !errors.Is(err, gacha.ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}
