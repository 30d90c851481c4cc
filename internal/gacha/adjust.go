package gacha

import "github.com/xtding233/gacha-scout/internal/card"

// padBucket returns a bucket of exactly k cards. Missing slots are filled by
// drawing, with replacement, from the cards the pool actually returned.
// Surplus cards are dropped. cards must be non-empty.
func padBucket(cards []card.Card, k int, rng RandomSource) []card.Card {
	if len(cards) > k {
		cards = cards[:k]
	}
	src := len(cards)
	out := make([]card.Card, src, k)
	copy(out, cards)
	for len(out) < k {
		out = append(out, cards[intn(rng, src)])
	}
	return out
}

// flipBucket sweeps left to right and, with probability 1/len(b), copies
// b[i+1] over b[i]. Replacements chain within one sweep.
func flipBucket(b []card.Card, rng RandomSource) {
	p := 1 / float64(len(b))
	for i := 0; i < len(b)-1; i++ {
		// len(b) >= 2 inside the loop, so p is in (0, 1/2] and Chance
		// cannot return ErrInvalidProb.
		if hit, _ := Chance(p, rng); hit {
			b[i] = b[i+1]
		}
	}
}
