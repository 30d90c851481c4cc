package grid

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const maxFontSize = 512

// Measurer reports the rendered size of text at a point size.
type Measurer interface {
	Measure(text string, size int) (w, h int)
}

// FontSize returns the largest point size at which every text fits a
// boxW/len(texts) by boxH cell. It never returns less than 1.
func FontSize(boxW, boxH int, texts []string, m Measurer) int {
	if len(texts) == 0 || m == nil {
		return 1
	}
	cellW := boxW / len(texts)
	fits := func(size int) bool {
		for _, t := range texts {
			w, h := m.Measure(t, size)
			if w > cellW || h > boxH {
				return false
			}
		}
		return true
	}
	size := 1
	for size < maxFontSize && fits(size+1) {
		size++
	}
	return size
}

// Typeface measures and draws text with one OpenType font. Faces are built
// per call since they are not safe for concurrent use.
type Typeface struct {
	font *opentype.Font
}

// NewTypeface parses an OpenType or TrueType font file.
func NewTypeface(ttf []byte) (*Typeface, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Typeface{font: f}, nil
}

var defaultTypeface = sync.OnceValues(func() (*Typeface, error) {
	return NewTypeface(goregular.TTF)
})

// DefaultTypeface returns the bundled Go Regular font.
func DefaultTypeface() (*Typeface, error) { return defaultTypeface() }

func (t *Typeface) face(size int) (font.Face, error) {
	return opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Measure implements Measurer. Height is ascent plus descent.
func (t *Typeface) Measure(text string, size int) (int, int) {
	f, err := t.face(size)
	if err != nil {
		return maxFontSize * 8, maxFontSize * 8
	}
	defer f.Close()
	m := f.Metrics()
	return font.MeasureString(f, text).Ceil(), (m.Ascent + m.Descent).Ceil()
}

var (
	labelOutline = color.White
	labelText    = color.White
	// DefaultLabelColor fills the label box when a tile names none.
	DefaultLabelColor color.Color = color.NRGBA{R: 0xff, A: 0xff}
)

// drawLabel overlays a labelW x labelH box anchored at the bottom-center of
// dst, split into one cell per text with a divider between cells.
func drawLabel(dst draw.Image, texts []string, fill color.Color, labelW, labelH int, tf *Typeface) error {
	if len(texts) == 0 {
		return nil
	}
	b := dst.Bounds()
	if labelW <= 0 {
		labelW = b.Dx()
	}
	if labelH <= 0 {
		labelH = max(b.Dy()/4, 1)
	}
	labelW = min(labelW, b.Dx())
	labelH = min(labelH, b.Dy())
	x0 := b.Min.X + (b.Dx()-labelW)/2
	box := image.Rect(x0, b.Max.Y-labelH, x0+labelW, b.Max.Y)
	if fill == nil {
		fill = DefaultLabelColor
	}
	draw.Draw(dst, box, image.NewUniform(fill), image.Point{}, draw.Src)
	strokeRect(dst, box, labelOutline)

	size := FontSize(labelW, labelH, texts, tf)
	face, err := tf.face(size)
	if err != nil {
		return fmt.Errorf("label face: %w", err)
	}
	defer face.Close()
	metrics := face.Metrics()
	textH := (metrics.Ascent + metrics.Descent).Ceil()

	cellW := labelW / len(texts)
	for i, text := range texts {
		cellX := box.Min.X + i*cellW
		if i > 0 {
			vline(dst, cellX, box.Min.Y, box.Max.Y, labelOutline)
		}
		w := font.MeasureString(face, text).Ceil()
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(labelText),
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.I(cellX + (cellW-w)/2),
				Y: fixed.I(box.Min.Y+(labelH-textH)/2) + metrics.Ascent,
			},
		}
		d.DrawString(text)
	}
	return nil
}

func strokeRect(dst draw.Image, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	vline(dst, r.Min.X, r.Min.Y, r.Max.Y, c)
	vline(dst, r.Max.X-1, r.Min.Y, r.Max.Y, c)
}

func vline(dst draw.Image, x, y0, y1 int, c color.Color) {
	for y := y0; y < y1; y++ {
		dst.Set(x, y, c)
	}
}
