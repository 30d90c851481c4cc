// resolve.go
package rates

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/gacha"
)

// Overrides replaces individual rarity probabilities of a loaded table,
// e.g. from command line flags.
type Overrides map[card.Rarity]float64

// ParseOverride parses one "RARITY=P" pair into o.
func (o Overrides) ParseOverride(s string) error {
	name, val, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("override %q: want RARITY=P", s)
	}
	r, err := card.ParseRarity(strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("override %q: %w", s, err)
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return fmt.Errorf("override %q: %w", s, err)
	}
	o[r] = p
	return nil
}

// Resolve applies o on top of t and validates the outcome.
func Resolve(t gacha.RarityTable, o Overrides) (gacha.RarityTable, error) {
	out := maps.Clone(t)
	if out == nil {
		out = gacha.RarityTable{}
	}
	for r, p := range o {
		out[r] = p
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
