package main

import "testing"

// rectShape is a 4 point shape of w x h pixels at zoom 0x40, listed
// clockwise from the top right corner.
func rectShape(desc, w, h uint8) []byte {
	return []byte{desc, w, h, 4, w, 0, w, h, 0, h, 0, 0}
}

func drawShape(r *Renderer, data []byte, color uint8, zoom uint16, pt point) {
	r.bindArena(data, 0)
	r.setDataBuffer(0, 0)
	r.readAndDrawPolygon(color, zoom, pt)
}

func TestPolygon_FillsRectangle(t *testing.T) {
	r, _ := newTestRenderer(t)
	drawShape(r, rectShape(0xC0, 20, 10), 5, defaultZoom, point{160, 100})

	inside := [][2]int{{150, 95}, {170, 95}, {160, 100}, {150, 104}, {170, 104}}
	for _, p := range inside {
		if got := pixel(r, r.draw, p[0], p[1]); got != 5 {
			t.Errorf("pixel %v = %d, want 5", p, got)
		}
	}
	outside := [][2]int{{149, 95}, {171, 95}, {160, 94}, {160, 105}}
	for _, p := range outside {
		if got := pixel(r, r.draw, p[0], p[1]); got != 0 {
			t.Errorf("pixel %v = %d, want 0", p, got)
		}
	}
}

func TestPolygon_ZoomScalesShape(t *testing.T) {
	r, _ := newTestRenderer(t)
	drawShape(r, rectShape(0xC0, 20, 10), 3, 0x80, point{100, 100})
	if got := pixel(r, r.draw, 80, 90); got != 3 {
		t.Fatalf("corner of the doubled shape = %d, want 3", got)
	}
	if got := pixel(r, r.draw, 79, 90); got != 0 {
		t.Fatalf("pixel left of the doubled shape = %d, want 0", got)
	}
}

func TestPolygon_ColorFromDescriptor(t *testing.T) {
	r, _ := newTestRenderer(t)
	drawShape(r, rectShape(0xC7, 4, 4), 0xFF, defaultZoom, point{10, 10})
	if got := pixel(r, r.draw, 10, 10); got != 7 {
		t.Fatalf("pixel = %d, want the descriptor color 7", got)
	}
}

func TestPolygon_ClipsAtScreenEdges(t *testing.T) {
	r, _ := newTestRenderer(t)
	drawShape(r, rectShape(0xC0, 40, 40), 6, defaultZoom, point{0, 0})
	if got := pixel(r, r.draw, 0, 0); got != 6 {
		t.Fatalf("visible corner = %d, want 6", got)
	}
	if got := pixel(r, r.draw, 20, 19); got != 6 {
		t.Fatalf("pixel 20,19 = %d, want 6", got)
	}
	if got := pixel(r, r.draw, 21, 0); got != 0 {
		t.Fatal("fill ran past the shape")
	}

	// Entirely off screen shapes are skipped.
	r.fillPage(uint8(r.draw), 0)
	drawShape(r, rectShape(0xC0, 10, 10), 6, defaultZoom, point{400, 50})
	for _, b := range r.pages[r.draw] {
		if b != 0 {
			t.Fatal("off screen shape touched the page")
		}
	}
}

func TestPolygon_ClipsAtRightEdge(t *testing.T) {
	r, _ := newTestRenderer(t)
	drawShape(r, rectShape(0xC0, 40, 20), 6, defaultZoom, point{310, 100})
	if got := pixel(r, r.draw, 319, 100); got != 6 {
		t.Fatalf("last column = %d, want 6", got)
	}
	if got := pixel(r, r.draw, 290, 100); got != 6 {
		t.Fatalf("left edge = %d, want 6", got)
	}
	if got := pixel(r, r.draw, 289, 100); got != 0 {
		t.Fatal("fill ran left of the shape")
	}
	// Columns past 319 would land at the start of the next row.
	for y := 89; y <= 111; y++ {
		for x := range 12 {
			if got := pixel(r, r.draw, x, y); got != 0 {
				t.Fatalf("pixel %d,%d = %d, span wrapped past column 319", x, y, got)
			}
		}
	}
}

func TestPolygon_ScanStartsAtBoundingBoxTop(t *testing.T) {
	// The outline starts 20 rows below the top of its 10 row box, so the
	// first point lies under the bottom of the screen.
	shape := []byte{0xC0, 10, 10, 4, 10, 20, 10, 30, 0, 30, 0, 20}

	r, _ := newTestRenderer(t)
	drawShape(r, shape, 5, defaultZoom, point{100, 185})
	for _, y := range []int{180, 189} {
		if got := pixel(r, r.draw, 100, y); got != 5 {
			t.Fatalf("pixel 100,%d = %d, want 5", y, got)
		}
	}
	if got := pixel(r, r.draw, 100, 190); got != 0 {
		t.Fatalf("pixel 100,190 = %d, want 0", got)
	}

	r, _ = newTestRenderer(t)
	drawShape(r, shape, 5, defaultZoom, point{100, 198})
	if got := pixel(r, r.draw, 100, screenHeight-1); got != 5 {
		t.Fatalf("bottom row = %d, want 5", got)
	}
}

func TestPolygon_SinglePoint(t *testing.T) {
	r, _ := newTestRenderer(t)
	drawShape(r, []byte{0xC0, 0, 1, 4, 0, 0, 0, 0, 0, 0, 0, 0}, 9, defaultZoom, point{11, 20})
	if got := pixel(r, r.draw, 11, 20); got != 9 {
		t.Fatalf("point = %d, want 9", got)
	}
	if got := pixel(r, r.draw, 10, 20); got != 0 {
		t.Fatal("point also set its neighbour")
	}
}

func TestPolygon_OverlaySetsBit3(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.fillPage(uint8(r.draw), 0x3)
	drawShape(r, rectShape(0xC0, 8, 8), colorOverlay, defaultZoom, point{50, 50})
	if got := pixel(r, r.draw, 50, 50); got != 0xB {
		t.Fatalf("overlay pixel = %#x, want 0xB", got)
	}
	if got := pixel(r, r.draw, 60, 50); got != 0x3 {
		t.Fatalf("pixel outside overlay = %#x, want 0x3", got)
	}
}

func TestPolygon_CopiesFromPage0(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.fillPage(0, 0xE)
	drawShape(r, rectShape(0xC0, 8, 8), 0x11, defaultZoom, point{50, 50})
	if got := pixel(r, r.draw, 50, 50); got != 0xE {
		t.Fatalf("page 0 copy = %#x, want 0xE", got)
	}

	// Drawing into page 0 with a copy color is a no-op.
	r.selectDrawTarget(0)
	r.fillPage(0, 0x1)
	drawShape(r, rectShape(0xC0, 8, 8), 0x11, defaultZoom, point{50, 50})
	if got := pixel(r, 0, 50, 50); got != 0x1 {
		t.Fatalf("page 0 pixel = %#x after a self copy", got)
	}
}

func TestPolygon_Hierarchy(t *testing.T) {
	// Group anchored 4,4 above the origin with two children. Both use the
	// shape at byte 16; the second sets bit 15 of its offset and is
	// recolored to 2.
	data := []byte{
		0x02, 4, 4, 1,
		0x00, 0x08, 4, 4,
		0x80, 0x08, 8, 4,
		0x02, 0x00, 0, 0,
	}
	data = append(data, rectShape(0xC5, 4, 4)...)

	r, _ := newTestRenderer(t)
	r.bindArena(data, 0)
	r.setDataBuffer(0, 0)
	r.readAndDrawPolygon(0xFF, defaultZoom, point{100, 100})

	if got := pixel(r, r.draw, 100, 100); got != 5 {
		t.Fatalf("first child = %d, want its own color 5", got)
	}
	if got := pixel(r, r.draw, 104, 100); got != 2 {
		t.Fatalf("second child = %d, want recolor 2", got)
	}
}

func TestPolygon_BadDataIsSkipped(t *testing.T) {
	r, _ := newTestRenderer(t)
	// Odd point count.
	drawShape(r, []byte{0xC0, 4, 4, 3, 0, 0, 4, 0, 4, 4}, 5, defaultZoom, point{50, 50})
	// Truncated point list.
	drawShape(r, []byte{0xC0, 4, 4, 4, 4, 0}, 5, defaultZoom, point{50, 50})
	// Unknown descriptor.
	drawShape(r, []byte{0x05}, 5, defaultZoom, point{50, 50})
	for _, b := range r.pages[r.draw] {
		if b != 0 {
			t.Fatal("bad polygon data drew pixels")
		}
	}
}

func TestSpanBounds(t *testing.T) {
	tests := []struct {
		x1, x2      int16
		start, w    int
		left, right bool
	}{
		{0, 1, 0, 1, false, false},
		{0, 0, 0, 0, false, true},
		{1, 1, 0, 0, true, false},
		{1, 2, 0, 0, true, true},
		{2, 7, 1, 3, false, false},
	}
	for _, tc := range tests {
		start, w, left, right := spanBounds(tc.x1, tc.x2)
		if start != tc.start || w != tc.w || left != tc.left || right != tc.right {
			t.Errorf("spanBounds(%d,%d) = %d,%d,%v,%v want %d,%d,%v,%v",
				tc.x1, tc.x2, start, w, left, right, tc.start, tc.w, tc.left, tc.right)
		}
	}
}
