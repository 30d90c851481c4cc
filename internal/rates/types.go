// types.go
package rates

// RawConfig is one rates YAML file as written on disk.
//
// default.yaml carries a table per box under "boxes"; a box override file
// (boxes/<box>.yaml) carries a single table under "rates". Rarity keys are
// case-insensitive names: n, r, sr, ssr, ur.
type RawConfig struct {
	Version string                        `yaml:"version"`
	Boxes   map[string]map[string]float64 `yaml:"boxes,omitempty"`
	Rates   map[string]float64            `yaml:"rates,omitempty"`
	Notes   string                        `yaml:"notes,omitempty"`
}
