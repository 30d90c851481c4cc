// Package grid packs variably sized images into an aligned multi-row canvas.
package grid

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/xtding233/gacha-scout/internal/errs"
)

var ErrInvalidRows = errors.New("row count must be >= 1")

// LayoutSpec describes one render: image sizes in order, the number of rows
// and the gaps between images.
//
// Align keeps every row left-anchored. When false, rows narrower than the
// canvas are centered.
type LayoutSpec struct {
	Sizes    []image.Point
	Rows     int
	XPadding int
	YPadding int
	Align    bool
}

// Placement is where one image lands on the canvas.
type Placement struct {
	Position     image.Point
	CanvasWidth  int
	CanvasHeight int
}

// partition splits n items into rows nearly-equal contiguous chunks. The
// first n%rows chunks carry one extra item.
func partition(n, rows int) []int {
	q, r := n/rows, n%rows
	out := make([]int, rows)
	for i := range out {
		out[i] = q
		if i < r {
			out[i]++
		}
	}
	return out
}

// Layout computes the position of every image and the canvas size.
// Requesting more rows than images yields one image per row.
func Layout(spec LayoutSpec) ([]Placement, int, int, error) {
	n := len(spec.Sizes)
	if n == 0 {
		return nil, 0, 0, errs.ErrEmptyImageSet
	}
	if spec.Rows < 1 {
		return nil, 0, 0, fmt.Errorf("%w: got %d", ErrInvalidRows, spec.Rows)
	}
	rows := partition(n, min(spec.Rows, n))

	pos := make([]image.Point, n)
	rowWidths := make([]int, len(rows))
	rowStart := make([]int, len(rows))
	var canvasW, canvasH, y, idx int
	for ri, count := range rows {
		rowStart[ri] = idx
		var x, rowH int
		for j := 0; j < count; j++ {
			sz := spec.Sizes[idx]
			pos[idx] = image.Pt(x, y)
			x += sz.X + spec.XPadding
			rowH = max(rowH, sz.Y)
			idx++
		}
		rowWidths[ri] = x - spec.XPadding
		canvasW = max(canvasW, rowWidths[ri])
		canvasH += rowH
		y += rowH + spec.YPadding
	}
	canvasH += spec.YPadding * (len(rows) - 1)

	if !spec.Align {
		for ri, count := range rows {
			if rowWidths[ri] >= canvasW {
				continue
			}
			shift := int(math.RoundToEven(float64(canvasW-rowWidths[ri]) / 2))
			for j := rowStart[ri]; j < rowStart[ri]+count; j++ {
				pos[j].X += shift
			}
		}
	}

	out := make([]Placement, n)
	for i, p := range pos {
		out[i] = Placement{Position: p, CanvasWidth: canvasW, CanvasHeight: canvasH}
	}
	return out, canvasW, canvasH, nil
}
