package tui

import (
	"github.com/1broseidon/rrtile/internal/tiling"
)

// Box is one labelled rectangle on a layout map.
type Box struct {
	Label string
	Rect  tiling.Rect
}

// RenderLayoutMap draws boxes positioned inside a screen of the given size
// onto a width x height character canvas.
func RenderLayoutMap(boxes []Box, screenW, screenH, width, height int) []string {
	if width < 5 || height < 3 || screenW <= 0 || screenH <= 0 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, b := range boxes {
		drawBox(canvas, b, screenW, screenH, width, height)
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

func drawBox(canvas [][]rune, b Box, screenW, screenH, canvasW, canvasH int) {
	rect := b.Rect
	x1 := rect.X * canvasW / screenW
	y1 := rect.Y * canvasH / screenH
	x2 := (rect.X + rect.Width) * canvasW / screenW
	y2 := (rect.Y + rect.Height) * canvasH / screenH

	// Clamp inside the border.
	x1 = max(x1, 1)
	y1 = max(y1, 1)
	x2 = min(x2, canvasW-2)
	y2 = min(y2, canvasH-2)

	// Need at least 2x2 for a box
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x <= x2; x++ {
		canvas[y1][x] = '─'
		canvas[y2][x] = '─'
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = '│'
		canvas[y][x2] = '│'
	}
	canvas[y1][x1] = '┌'
	canvas[y1][x2] = '┐'
	canvas[y2][x1] = '└'
	canvas[y2][x2] = '┘'

	// Label in the centre, truncated to the box interior.
	centerY := (y1 + y2) / 2
	if centerY <= y1 || centerY >= y2 {
		return
	}
	label := []rune(b.Label)
	if inner := x2 - x1 - 1; len(label) > inner {
		label = label[:inner]
	}
	startX := (x1+x2)/2 - len(label)/2
	for i, r := range label {
		if startX+i > x1 && startX+i < x2 {
			canvas[centerY][startX+i] = r
		}
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 1 || height < 1 {
		return nil
	}
	lines := make([]string, height)
	row := make([]rune, width)
	for i := range row {
		row[i] = ' '
	}
	for i := range lines {
		lines[i] = string(row)
	}
	return lines
}
