package gacha

import (
	"errors"
	"maps"

	"github.com/xtding233/gacha-scout/internal/card"
)

// Box names a gacha pool with its own rate table.
type Box string

const (
	BoxRegular Box = "regular"
	BoxHonour  Box = "honour"
	BoxCoupon  Box = "coupon"
	BoxSupport Box = "support"
)

var ErrInvalidTable = errors.New("invalid rarity table")

// RarityTable maps each rarity to its probability. Missing rarities are 0.
type RarityTable map[card.Rarity]float64

// RateBook holds the table of every known box.
type RateBook map[Box]RarityTable

// DefaultRateBook returns the built-in scouting rates.
func DefaultRateBook() RateBook {
	return RateBook{
		BoxRegular: {card.N: 0.95, card.R: 0.05},
		BoxHonour:  {card.R: 0.80, card.SR: 0.15, card.SSR: 0.04, card.UR: 0.01},
		BoxCoupon:  {card.SR: 0.80, card.UR: 0.20},
		BoxSupport: {card.R: 0.60, card.SR: 0.30, card.UR: 0.10},
	}
}

// Clone returns a deep copy of the book.
func (b RateBook) Clone() RateBook {
	out := make(RateBook, len(b))
	for box, t := range b {
		out[box] = maps.Clone(t)
	}
	return out
}

type threshold struct {
	rarity card.Rarity
	upTo   float64 // cumulative mass from UR down to rarity
}

// Sampler resolves a uniform draw against a RarityTable, walking the ladder
// from the rarest tier to the commonest.
type Sampler struct {
	steps    []threshold
	fallback card.Rarity
}

// NewSampler precomputes the cumulative thresholds of t.
func NewSampler(t RarityTable) *Sampler {
	s := &Sampler{fallback: card.N}
	var acc float64
	for i := len(card.Ladder) - 1; i > 0; i-- {
		r := card.Ladder[i]
		acc += t[r]
		s.steps = append(s.steps, threshold{rarity: r, upTo: acc})
	}
	// Float error can leave a sliver of mass past the last threshold. When
	// N has no mass of its own that sliver belongs to the commonest tier
	// that does.
	if t[card.N] <= 0 {
		for _, r := range card.Ladder[1:] {
			if t[r] > 0 {
				s.fallback = r
				break
			}
		}
	}
	return s
}

// Roll maps u in [0,1) onto a rarity. With guaranteedRare an R outcome is
// promoted to SR.
func (s *Sampler) Roll(u float64, guaranteedRare bool) card.Rarity {
	r := s.fallback
	for _, st := range s.steps {
		if u < st.upTo {
			r = st.rarity
			break
		}
	}
	if r == card.R && guaranteedRare {
		return card.SR
	}
	return r
}

// RollRarity draws one rarity from t.
func RollRarity(t RarityTable, guaranteedRare bool, rng RandomSource) card.Rarity {
	if rng == nil {
		rng = DefaultRNG()
	}
	return NewSampler(t).Roll(rng.Float64(), guaranteedRare)
}
