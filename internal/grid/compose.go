package grid

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"github.com/xtding233/gacha-scout/internal/errs"
)

var ErrBadImage = errors.New("cannot decode image")

// Tile is one image to place, with optional label texts.
type Tile struct {
	Data       []byte
	Labels     []string
	LabelColor color.Color
}

// Options control a Compose call.
type Options struct {
	Rows     int
	Align    bool
	XPadding int
	YPadding int

	// TileHeight, when positive, rescales every tile to that height
	// keeping its aspect ratio.
	TileHeight int

	LabelWidth  int
	LabelHeight int
	// Typeface draws labels; nil uses DefaultTypeface.
	Typeface *Typeface
}

// DefaultOptions matches the scout composite: two centered rows, 10px gaps
// and a 100x25 label box.
func DefaultOptions() Options {
	return Options{
		Rows:        2,
		XPadding:    10,
		YPadding:    10,
		LabelWidth:  100,
		LabelHeight: 25,
	}
}

// Compose decodes tiles, lays them out and returns the canvas as PNG.
// Every tile is decoded before anything is drawn, so a bad tile yields no
// canvas at all.
func Compose(tiles []Tile, opts Options) ([]byte, error) {
	if len(tiles) == 0 {
		return nil, errs.ErrEmptyImageSet
	}

	imgs := make([]*image.NRGBA, len(tiles))
	sizes := make([]image.Point, len(tiles))
	for i, t := range tiles {
		img, _, err := image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: tile %d: %w", ErrBadImage, i, err)
		}
		if opts.TileHeight > 0 && img.Bounds().Dy() != opts.TileHeight {
			img = resize.Resize(0, uint(opts.TileHeight), img, resize.Lanczos3)
		}
		imgs[i] = toNRGBA(img)
		sizes[i] = imgs[i].Bounds().Size()
	}

	placements, w, h, err := Layout(LayoutSpec{
		Sizes:    sizes,
		Rows:     opts.Rows,
		XPadding: opts.XPadding,
		YPadding: opts.YPadding,
		Align:    opts.Align,
	})
	if err != nil {
		return nil, err
	}

	var tf *Typeface
	for i, t := range tiles {
		if len(t.Labels) == 0 {
			continue
		}
		if tf == nil {
			if tf = opts.Typeface; tf == nil {
				if tf, err = DefaultTypeface(); err != nil {
					return nil, err
				}
			}
		}
		if err := drawLabel(imgs[i], t.Labels, t.LabelColor, opts.LabelWidth, opts.LabelHeight, tf); err != nil {
			return nil, err
		}
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, img := range imgs {
		p := placements[i].Position
		draw.Draw(canvas, img.Bounds().Sub(img.Bounds().Min).Add(p), img, img.Bounds().Min, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode canvas: %w", err)
	}
	return buf.Bytes(), nil
}

// toNRGBA returns a private, zero-origin copy of img that labels can draw on.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
