package grid

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/xtding233/gacha-scout/internal/errs"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fixedMeasurer reports size*len(text)/2 wide and size tall.
type fixedMeasurer struct{}

func (fixedMeasurer) Measure(text string, size int) (int, int) {
	return size * len(text) / 2, size
}

func TestFontSize(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		texts []string
		want  int
	}{
		{"height bound", 100, 25, []string{"ab"}, 25},
		{"width bound", 100, 25, []string{"abcdefghij"}, 20},
		{"split cells", 100, 25, []string{"abcde", "x"}, 20},
		{"nothing fits", 1, 1, []string{"abc"}, 1},
		{"no texts", 100, 25, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FontSize(tt.w, tt.h, tt.texts, fixedMeasurer{}); got != tt.want {
				t.Fatalf("FontSize = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTypefaceFontSizeFitsBox(t *testing.T) {
	tf, err := DefaultTypeface()
	if err != nil {
		t.Fatal(err)
	}
	size := FontSize(100, 25, []string{"Umi", "SR"}, tf)
	if size < 2 {
		t.Fatalf("size = %d", size)
	}
	for _, s := range []string{"Umi", "SR"} {
		w, h := tf.Measure(s, size)
		if w > 50 || h > 25 {
			t.Fatalf("%q at %d measures %dx%d", s, size, w, h)
		}
	}
}

func TestComposeCanvas(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	tiles := make([]Tile, 11)
	for i := range tiles {
		tiles[i] = Tile{Data: solidPNG(t, 50, 50, red)}
	}
	out, err := Compose(tiles, Options{Rows: 2, XPadding: 10, YPadding: 10})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(350, 110) {
		t.Fatalf("canvas = %v", got)
	}
	// Second row is centered: the first 30px of it stay transparent.
	if _, _, _, a := img.At(10, 80).RGBA(); a != 0 {
		t.Fatalf("expected transparent margin, alpha=%d", a)
	}
	if r, _, _, a := img.At(35, 80).RGBA(); a == 0 || r == 0 {
		t.Fatal("expected tile pixel at (35,80)")
	}
	// Gap between tiles stays transparent.
	if _, _, _, a := img.At(55, 10).RGBA(); a != 0 {
		t.Fatal("expected transparent gap")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	tiles := []Tile{
		{Data: solidPNG(t, 120, 120, color.NRGBA{B: 0xff, A: 0xff}), Labels: []string{"Umi", "x2"}},
		{Data: solidPNG(t, 120, 120, color.NRGBA{G: 0xff, A: 0xff}), Labels: []string{"Dia"}, LabelColor: color.Black},
		{Data: solidPNG(t, 80, 120, color.NRGBA{R: 0x80, A: 0xff})},
	}
	opts := DefaultOptions()
	a, err := Compose(tiles, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compose(tiles, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("identical inputs rendered different bytes")
	}
}

func TestComposeDrawsLabelBox(t *testing.T) {
	blue := color.NRGBA{B: 0xff, A: 0xff}
	tiles := []Tile{{Data: solidPNG(t, 120, 120, blue), Labels: []string{"SR"}}}
	out, err := Compose(tiles, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	img, _ := png.Decode(bytes.NewReader(out))
	// Label box spans x 10..110, y 95..120; its outline is white.
	if r, g, b, _ := img.At(10, 110).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Fatalf("outline pixel = %v", img.At(10, 110))
	}
	// Outside the box the tile is untouched.
	if r, _, b, _ := img.At(5, 110).RGBA(); r != 0 || b != 0xffff {
		t.Fatalf("tile pixel = %v", img.At(5, 110))
	}
	// Inside the box near the corner is the red fill.
	if r, _, b, _ := img.At(12, 97).RGBA(); r != 0xffff || b != 0 {
		t.Fatalf("fill pixel = %v", img.At(12, 97))
	}
}

func TestComposeResizesToTileHeight(t *testing.T) {
	tiles := []Tile{{Data: solidPNG(t, 100, 200, color.White)}}
	out, err := Compose(tiles, Options{Rows: 1, TileHeight: 100})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 50 || cfg.Height != 100 {
		t.Fatalf("canvas = %dx%d, want 50x100", cfg.Width, cfg.Height)
	}
}

func TestComposeErrors(t *testing.T) {
	if _, err := Compose(nil, DefaultOptions()); !errors.Is(err, errs.ErrEmptyImageSet) {
		t.Fatalf("empty: err = %v", err)
	}
	tiles := []Tile{{Data: solidPNG(t, 10, 10, color.White)}, {Data: []byte("not an image")}}
	if _, err := Compose(tiles, DefaultOptions()); !errors.Is(err, ErrBadImage) {
		t.Fatalf("bad tile: err = %v", err)
	}
}
