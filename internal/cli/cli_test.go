package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/card/sqlite"
)

// isolate points every XDG directory at a temp dir and returns the
// settings path inside it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return SettingsPath()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadSettingsWritesDefaults(t *testing.T) {
	path := isolate(t)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.DefaultBox != "honour" || !strings.HasSuffix(s.DBPath, filepath.Join("gacha-scout", "cards.db")) {
		t.Fatalf("defaults = %+v", s)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file not created: %v", err)
	}

	if err := os.WriteFile(path, []byte("default_box = \"coupon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.DefaultBox != "coupon" || s.CacheDir == "" {
		t.Fatalf("merged = %+v", s)
	}
}

func TestLoadSettingsRejectsBadTOML(t *testing.T) {
	path := isolate(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("default_box = [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestParseFilters(t *testing.T) {
	f, err := parseFilters([]string{"main_unit=Aqours", "year=First, Second", "year=First"})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(f.Values(card.DimYear), []string{"First", "Second"}) {
		t.Fatalf("year = %v", f.Values(card.DimYear))
	}
	for _, bad := range []string{"Aqours", "colour=red"} {
		if _, err := parseFilters([]string{bad}); err == nil {
			t.Errorf("parseFilters(%q) succeeded", bad)
		}
	}
}

func TestDrawFlagsRequest(t *testing.T) {
	f := drawFlags{box: "Coupon", guaranteed: true}
	req, err := f.request("honour", []string{"11"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Box != "coupon" || req.Count != 11 || !req.GuaranteedRare {
		t.Fatalf("req = %+v", req)
	}
	if _, err := f.request("honour", []string{"0"}); err == nil {
		t.Fatal("expected count error")
	}
}

func TestSimulateCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "simulate", "--box", "coupon", "--trials", "2000", "--seed", "7", "--until", "UR")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"box coupon", "SR", "UR", "draws until UR", "loveca"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\nN ") {
		t.Errorf("coupon box printed an N row:\n%s", out)
	}
}

func TestSimulateUnreachableRarity(t *testing.T) {
	isolate(t)
	out, err := run(t, "simulate", "--box", "regular", "--trials", "100", "--until", "UR")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "unreachable") {
		t.Fatalf("output = %s", out)
	}
}

func TestSimulateRejectsBadOverride(t *testing.T) {
	isolate(t)
	if _, err := run(t, "simulate", "--rate", "UR=0.9"); err == nil {
		t.Fatal("expected invalid table error")
	}
}

func TestDrawFromCatalog(t *testing.T) {
	path := isolate(t)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.DBPath), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := sqlite.Open(s.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	var cards []card.Card
	for _, r := range []card.Rarity{card.R, card.SR, card.SSR, card.UR} {
		for i := range 5 {
			id := int(r)*100 + i
			cards = append(cards, card.Card{ID: id, Name: "Tsushima Yoshiko", Rarity: r, Attribute: "Cool", Thumbnail: "//x/t.png", Image: "//x/f.png"})
		}
	}
	if err := store.Upsert(context.Background(), cards...); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "draw", "5", "--seed", "42")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("want 5 card lines, got:\n%s", out)
	}
	for _, l := range lines {
		if !strings.Contains(l, "Tsushima Yoshiko") {
			t.Errorf("line %q", l)
		}
	}

	if _, err := run(t, "draw", "2", "--box", "regular", "-f", "name=Tsushima Yoshiko"); err == nil {
		t.Fatal("name-locked regular draw needs N cards, want error")
	}
}

func TestCacheClean(t *testing.T) {
	path := isolate(t)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.png", "b.png"} {
		if err := os.WriteFile(filepath.Join(s.CacheDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out, err := run(t, "cache", "clean")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "removed 2 files") {
		t.Fatalf("output = %q", out)
	}
}
