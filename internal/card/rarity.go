package card

import (
	"fmt"
	"strings"
)

// Rarity is a tier on the rarity ladder. Higher values are rarer.
type Rarity int

const (
	N Rarity = iota
	R
	SR
	SSR
	UR
)

// Ladder lists every rarity from commonest to rarest.
var Ladder = []Rarity{N, R, SR, SSR, UR}

var rarityNames = [...]string{"N", "R", "SR", "SSR", "UR"}

func (r Rarity) String() string {
	if r < N || r > UR {
		return fmt.Sprintf("Rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// Valid reports whether r is on the ladder.
func (r Rarity) Valid() bool { return r >= N && r <= UR }

// ParseRarity accepts the ladder names case-insensitively.
func ParseRarity(s string) (Rarity, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range rarityNames {
		if name == s {
			return Rarity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rarity) UnmarshalText(b []byte) error {
	v, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
