package gacha

import (
	"fmt"
	"math"
	"strings"
)

// sumTolerance absorbs float error in hand-written rate tables.
const sumTolerance = 1e-9

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}

// Validate checks every probability is in [0,1], every key is on the
// ladder and the total is 1.
func (t RarityTable) Validate() error {
	var errs []string
	var sum float64
	for r, p := range t {
		if !r.Valid() {
			errs = append(errs, fmt.Sprintf("unknown rarity %d", int(r)))
			continue
		}
		if err := validateProb(p); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r, err))
			continue
		}
		sum += p
	}
	if len(errs) == 0 && math.Abs(sum-1) > sumTolerance {
		errs = append(errs, fmt.Sprintf("probabilities sum to %g, want 1", sum))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTable, strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks every table in the book.
func (b RateBook) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: no boxes", ErrInvalidTable)
	}
	for box, t := range b {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("box %s: %w", box, err)
		}
	}
	return nil
}
