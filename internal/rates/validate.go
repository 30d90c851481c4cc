package rates

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/xtding233/gacha-scout/internal/card"
)

var ErrInvalidConfig = errors.New("config validation failed")

const sumTolerance = 1e-9

// ValidateRaw checks semantic constraints of a RawConfig and reports every
// problem at once.
func ValidateRaw(cfg RawConfig) error {
	var problems []string

	for _, box := range slices.Sorted(maps.Keys(cfg.Boxes)) {
		problems = append(problems, checkTable("boxes."+box, cfg.Boxes[box])...)
	}
	if cfg.Rates != nil {
		problems = append(problems, checkTable("rates", cfg.Rates)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func checkTable(prefix string, raw map[string]float64) []string {
	var problems []string
	if len(raw) == 0 {
		return []string{prefix + " must list at least one rarity"}
	}
	var sum float64
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		p := raw[name]
		if _, err := card.ParseRarity(name); err != nil {
			problems = append(problems, fmt.Sprintf("%s.%s is not a rarity", prefix, name))
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			problems = append(problems, fmt.Sprintf("%s.%s must be in [0,1]", prefix, name))
			continue
		}
		sum += p
	}
	if math.Abs(sum-1) > sumTolerance {
		problems = append(problems, fmt.Sprintf("%s must sum to 1 (got %g)", prefix, sum))
	}
	return problems
}
