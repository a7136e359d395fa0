package tiling

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgbutil/xrect"
)

// Rect represents a region or window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) xrect() xrect.Rect {
	return xrect.New(r.X, r.Y, r.Width, r.Height)
}

// LargestOverlap returns the index of the rect in haystack that overlaps
// needle the most, or -1 when none overlaps.
func LargestOverlap(needle Rect, haystack []Rect) int {
	rects := make([]xrect.Rect, len(haystack))
	for i, r := range haystack {
		rects[i] = r.xrect()
	}
	return xrect.LargestOverlap(needle.xrect(), rects)
}

// CalculateGrid determines the optimal grid dimensions for the given number of windows
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows == 0 {
		return 0, 0
	}

	// Calculate columns first (ceiling of square root)
	cols = int(math.Ceil(math.Sqrt(float64(numWindows))))

	// Calculate rows needed
	rows = int(math.Ceil(float64(numWindows) / float64(cols)))

	return rows, cols
}

// CalculatePositions computes window positions for a grid layout with gaps.
// Portrait regions get the longer side of the grid vertically.
func CalculatePositions(numWindows int, region Rect, gapSize int) ([]Rect, error) {
	if numWindows == 0 {
		return nil, nil
	}

	rows, cols := CalculateGrid(numWindows)
	if region.Height > region.Width {
		rows, cols = cols, rows
	}

	// Gaps: one before each column and one after the last
	totalHorizontalGaps := (cols + 1) * gapSize
	totalVerticalGaps := (rows + 1) * gapSize

	cellWidth := (region.Width - totalHorizontalGaps) / cols
	cellHeight := (region.Height - totalVerticalGaps) / rows

	if cellWidth <= 0 || cellHeight <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for grid: region=%dx%d rows=%d cols=%d gap=%d",
			region.Width, region.Height, rows, cols, gapSize,
		)
	}

	positions := make([]Rect, numWindows)

	for i := 0; i < numWindows; i++ {
		row := i / cols
		col := i % cols

		positions[i] = Rect{
			X:      region.X + gapSize + col*(cellWidth+gapSize),
			Y:      region.Y + gapSize + row*(cellHeight+gapSize),
			Width:  cellWidth,
			Height: cellHeight,
		}
	}

	return positions, nil
}

// frac is a rect in coordinates relative to its region, each in [0, 1].
type frac struct {
	x, y, w, h float64
}

func toFrac(r, region Rect) frac {
	return frac{
		x: float64(r.X-region.X) / float64(region.Width),
		y: float64(r.Y-region.Y) / float64(region.Height),
		w: float64(r.Width) / float64(region.Width),
		h: float64(r.Height) / float64(region.Height),
	}
}

func (f frac) in(region Rect) Rect {
	return Rect{
		X:      region.X + int(math.Round(f.x*float64(region.Width))),
		Y:      region.Y + int(math.Round(f.y*float64(region.Height))),
		Width:  int(math.Round(f.w * float64(region.Width))),
		Height: int(math.Round(f.h * float64(region.Height))),
	}
}

// quarter turns the rect a quarter counter-clockwise inside the unit
// square, matching the RandR rotation direction.
func (f frac) quarter() frac {
	return frac{x: f.y, y: 1 - (f.x + f.w), w: f.h, h: f.w}
}

// Refit maps a window rect from one region frame into another, turning it
// counter-clockwise by the given number of quarter turns on the way.
func Refit(r, from, to Rect, quarters int) Rect {
	if from.Empty() || to.Empty() {
		return r
	}
	f := toFrac(r, from)
	quarters = ((quarters % 4) + 4) % 4
	for i := 0; i < quarters; i++ {
		f = f.quarter()
	}
	out := f.in(to)
	return clampInto(out, to)
}

// clampInto keeps a rect inside the region, shrinking it if needed.
func clampInto(r, region Rect) Rect {
	if r.Width > region.Width {
		r.Width = region.Width
	}
	if r.Height > region.Height {
		r.Height = region.Height
	}
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	if r.X < region.X {
		r.X = region.X
	}
	if r.Y < region.Y {
		r.Y = region.Y
	}
	if r.X+r.Width > region.X+region.Width {
		r.X = region.X + region.Width - r.Width
	}
	if r.Y+r.Height > region.Y+region.Height {
		r.Y = region.Y + region.Height - r.Height
	}
	return r
}
