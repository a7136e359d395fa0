package tiling

import "testing"

func TestCalculateGrid(t *testing.T) {
	tests := []struct {
		n, rows, cols int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{5, 2, 3},
		{9, 3, 3},
	}
	for _, tt := range tests {
		rows, cols := CalculateGrid(tt.n)
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("CalculateGrid(%d) = %dx%d, want %dx%d", tt.n, rows, cols, tt.rows, tt.cols)
		}
	}
}

func TestCalculatePositions_Gaps(t *testing.T) {
	positions, err := CalculatePositions(2, Rect{Width: 210, Height: 100}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// total gaps = 30, cell width = (210-30)/2 = 90
	want := []Rect{
		{X: 10, Y: 10, Width: 90, Height: 80},
		{X: 110, Y: 10, Width: 90, Height: 80},
	}
	for i, w := range want {
		if positions[i] != w {
			t.Fatalf("position %d = %s, want %s", i, positions[i], w)
		}
	}
}

func TestCalculatePositions_PortraitStacksVertically(t *testing.T) {
	positions, err := CalculatePositions(2, Rect{Width: 768, Height: 1024}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if positions[0] != (Rect{Width: 768, Height: 512}) || positions[1] != (Rect{Y: 512, Width: 768, Height: 512}) {
		t.Fatalf("unexpected portrait grid %v", positions)
	}
}

func TestCalculatePositions_ErrorsWhenInsufficientSpace(t *testing.T) {
	if _, err := CalculatePositions(2, Rect{Width: 20, Height: 10}, 20); err == nil {
		t.Fatalf("expected error for insufficient space")
	}
}

func TestRefit(t *testing.T) {
	landscape := Rect{Width: 1024, Height: 768}
	portrait := Rect{Width: 768, Height: 1024}
	left := Rect{Width: 512, Height: 768}

	tests := []struct {
		name     string
		r        Rect
		from, to Rect
		quarters int
		want     Rect
	}{
		{"full screen turns with the screen", landscape, landscape, portrait, 1, portrait},
		{"left half ends at the bottom", left, landscape, portrait, 1, Rect{Y: 512, Width: 768, Height: 512}},
		{"half turn mirrors", left, landscape, landscape, 2, Rect{X: 512, Width: 512, Height: 768}},
		{"four quarters is identity", left, landscape, landscape, 4, left},
		{"scale only", left, landscape, Rect{X: 100, Width: 2048, Height: 1536}, 0, Rect{X: 100, Width: 1024, Height: 1536}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Refit(tt.r, tt.from, tt.to, tt.quarters); got != tt.want {
				t.Fatalf("Refit() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRefit_ClampsIntoRegion(t *testing.T) {
	got := Refit(Rect{X: 900, Y: 700, Width: 400, Height: 300}, Rect{Width: 1024, Height: 768}, Rect{Width: 1024, Height: 768}, 0)
	if got.X+got.Width > 1024 || got.Y+got.Height > 768 {
		t.Fatalf("expected rect inside the region, got %s", got)
	}
}

func TestLargestOverlap(t *testing.T) {
	frames := []Rect{
		{Width: 1024, Height: 768},
		{X: 1024, Width: 1280, Height: 720},
	}
	if i := LargestOverlap(Rect{X: 1000, Y: 10, Width: 200, Height: 200}, frames); i != 1 {
		t.Fatalf("expected second frame, got %d", i)
	}
	if i := LargestOverlap(Rect{X: 5000, Y: 5000, Width: 10, Height: 10}, frames); i != -1 {
		t.Fatalf("expected no overlap, got %d", i)
	}
}
