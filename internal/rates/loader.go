package rates

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/gacha"
)

// Paths helper for default/box files.
type Paths struct {
	BaseDir string // base directory, e.g., /etc/gacha/rates
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "default.yaml")
}
func (p Paths) BoxPath(box gacha.Box) string {
	return filepath.Join(p.BaseDir, "boxes", string(box)+".yaml")
}
func (p Paths) BoxGlob() string {
	return filepath.Join(p.BaseDir, "boxes", "*.yaml")
}

// Loader reads YAML rate files and merges built-in → default.yaml → box file.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[gacha.Box]gacha.RarityTable
}

// NewLoader creates a rates loader rooted at baseDir. An empty baseDir
// serves the built-in tables only.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[gacha.Box]gacha.RarityTable),
	}
}

// Paths returns the file layout the loader reads.
func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads and merges default → box. The result holds the winning
// table under Rates, without validation.
func (l *Loader) LoadMerged(box gacha.Box) (RawConfig, error) {
	if l.paths.BaseDir == "" {
		return RawConfig{}, nil
	}
	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	boxCfg, err := readYAML(l.paths.BoxPath(box))
	if err != nil {
		return RawConfig{}, fmt.Errorf("read box %s: %w", box, err)
	}

	merged := RawConfig{Version: defCfg.Version, Notes: defCfg.Notes, Rates: defCfg.Boxes[string(box)]}
	return mergeRaw(merged, boxCfg), nil
}

// Load returns the validated table for box. Boxes with no file entry fall
// back to the built-in book.
func (l *Loader) Load(box gacha.Box) (gacha.RarityTable, error) {
	l.mu.RLock()
	if t, ok := l.cache[box]; ok {
		l.mu.RUnlock()
		return maps.Clone(t), nil
	}
	l.mu.RUnlock()

	merged, err := l.LoadMerged(box)
	if err != nil {
		return nil, err
	}
	var t gacha.RarityTable
	if len(merged.Rates) > 0 {
		if err := ValidateRaw(merged); err != nil {
			return nil, fmt.Errorf("box %s: %w", box, err)
		}
		t, _ = toTable(merged.Rates)
	} else {
		builtin, ok := gacha.DefaultRateBook()[box]
		if !ok {
			return nil, fmt.Errorf("%w: %q", gacha.ErrUnknownBox, box)
		}
		t = builtin
	}

	l.mu.Lock()
	l.cache[box] = t
	l.mu.Unlock()
	return maps.Clone(t), nil
}

// LoadBook loads every listed box. With no boxes it loads every box known
// to the built-in book or the rates directory.
func (l *Loader) LoadBook(boxes ...gacha.Box) (gacha.RateBook, error) {
	if len(boxes) == 0 {
		var err error
		if boxes, err = l.Boxes(); err != nil {
			return nil, err
		}
	}
	book := make(gacha.RateBook, len(boxes))
	for _, b := range boxes {
		t, err := l.Load(b)
		if err != nil {
			return nil, err
		}
		book[b] = t
	}
	return book, nil
}

// Boxes lists built-in boxes plus the ones declared on disk, sorted.
func (l *Loader) Boxes() ([]gacha.Box, error) {
	seen := make(map[gacha.Box]bool)
	for b := range gacha.DefaultRateBook() {
		seen[b] = true
	}
	if l.paths.BaseDir != "" {
		defCfg, err := readYAML(l.paths.DefaultPath())
		if err != nil {
			return nil, fmt.Errorf("read default: %w", err)
		}
		for name := range defCfg.Boxes {
			seen[gacha.Box(name)] = true
		}
		files, err := filepath.Glob(l.paths.BoxGlob())
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			seen[gacha.Box(strings.TrimSuffix(filepath.Base(f), ".yaml"))] = true
		}
	}
	out := slices.Collect(maps.Keys(seen))
	slices.Sort(out)
	return out, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[gacha.Box]gacha.RarityTable)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// mergeRaw lets 'b' override 'a'. A non-empty rates table replaces the
// inherited one whole, since partial tables would not sum to one.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if len(b.Rates) > 0 {
		out.Rates = maps.Clone(b.Rates)
	}
	return out
}

func toTable(raw map[string]float64) (gacha.RarityTable, error) {
	t := make(gacha.RarityTable, len(raw))
	for name, p := range raw {
		r, err := card.ParseRarity(name)
		if err != nil {
			return nil, err
		}
		t[r] += p
	}
	return t, nil
}
