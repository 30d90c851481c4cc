package card

import (
	"fmt"
	"slices"
	"strings"
)

// Dimension is a categorical attribute a Filter can constrain.
type Dimension string

const (
	DimName      Dimension = "name"
	DimMainUnit  Dimension = "main_unit"
	DimSubUnit   Dimension = "sub_unit"
	DimYear      Dimension = "year"
	DimAttribute Dimension = "attribute"
	DimRarity    Dimension = "rarity"
)

// Dimensions lists every supported dimension in a stable order.
var Dimensions = []Dimension{DimName, DimMainUnit, DimSubUnit, DimYear, DimAttribute, DimRarity}

// ParseDimension maps a name onto a Dimension.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Dimensions, d) {
		return "", fmt.Errorf("unknown filter dimension %q", s)
	}
	return d, nil
}

// Filter maps each dimension to the accepted values. An empty or missing
// entry leaves that dimension unconstrained.
type Filter map[Dimension][]string

// Values returns the accepted values for d.
func (f Filter) Values(d Dimension) []string {
	if f == nil {
		return nil
	}
	return f[d]
}

// Constrains reports whether d has at least one accepted value.
func (f Filter) Constrains(d Dimension) bool { return len(f.Values(d)) > 0 }

// Add appends values to d, skipping blanks and duplicates.
func (f Filter) Add(d Dimension, values ...string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(f[d], v) {
			continue
		}
		f[d] = append(f[d], v)
	}
}

// Clone returns a deep copy.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f))
	for d, vs := range f {
		if len(vs) > 0 {
			out[d] = append([]string(nil), vs...)
		}
	}
	return out
}

// Matches reports whether c satisfies every constrained dimension.
func (f Filter) Matches(c Card) bool {
	for d, vs := range f {
		if len(vs) == 0 {
			continue
		}
		var got string
		switch d {
		case DimName:
			got = c.Name
		case DimMainUnit:
			got = c.MainUnit
		case DimSubUnit:
			got = c.SubUnit
		case DimYear:
			got = c.Year
		case DimAttribute:
			got = c.Attribute
		case DimRarity:
			got = c.Rarity.String()
		}
		if !slices.Contains(vs, got) {
			return false
		}
	}
	return true
}
