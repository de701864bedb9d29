package main

import (
	"image/color"
	"testing"
)

func newTestRenderer(t *testing.T) (*Renderer, *CaptureSurface) {
	t.Helper()
	surface := NewCaptureSurface()
	return NewRenderer(surface, discardLogger()), surface
}

func TestRenderer_InitialPages(t *testing.T) {
	r, _ := newTestRenderer(t)
	if r.draw != 2 || r.front != 2 || r.back != 1 {
		t.Fatalf("draw/front/back = %d/%d/%d, want 2/2/1", r.draw, r.front, r.back)
	}
	if r.requestedPalette != paletteNone {
		t.Fatal("a palette change is pending after init")
	}
}

func TestRenderer_FillPageDoublesNibble(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.fillPage(1, 0x13)
	for i, b := range r.pages[1] {
		if b != 0x33 {
			t.Fatalf("page 1 byte %d = %#02x, want 0x33", i, b)
		}
	}
	r.fillPage(pageBack, 5)
	if r.pages[r.back][0] != 0x55 {
		t.Fatal("fillPage(0xFF) did not fill the back page")
	}
}

func TestRenderer_PaletteAppliedOnBlit(t *testing.T) {
	r, surface := newTestRenderer(t)
	mem := make([]byte, numPalettes*paletteSize)
	mem[2*paletteSize] = 0x0F
	mem[2*paletteSize+1] = 0xF0
	r.bindArena(mem, 0)

	r.setPaletteRequest(2)
	if r.palette[0] != (color.RGBA{}) {
		t.Fatal("palette changed before the blit")
	}
	r.updateDisplay(pageFront)
	want := color.RGBA{255, 255, 0, 255}
	if r.palette[0] != want {
		t.Fatalf("color 0 = %v, want %v", r.palette[0], want)
	}
	if r.requestedPalette != paletteNone {
		t.Fatal("palette request survived the blit")
	}
	_, pal := surface.Frame()
	if pal[0] != want {
		t.Fatalf("surface color 0 = %v, want %v", pal[0], want)
	}
}

func TestRenderer_UpdateDisplaySwapsOnBackPage(t *testing.T) {
	r, surface := newTestRenderer(t)
	r.fillPage(1, 7)
	r.updateDisplay(pageBack)
	if r.front != 1 || r.back != 2 {
		t.Fatalf("front/back = %d/%d after swap, want 1/2", r.front, r.back)
	}
	frame, _ := surface.Frame()
	if frame[0] != 0x77 {
		t.Fatalf("presented %#02x, want the old back page", frame[0])
	}

	r.updateDisplay(3)
	if r.front != 3 || r.back != 2 {
		t.Fatalf("front/back = %d/%d after selecting page 3", r.front, r.back)
	}
	if surface.FrameCount() != 2 {
		t.Fatalf("surface saw %d frames, want 2", surface.FrameCount())
	}
}

func TestRenderer_CopyPage(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.fillPage(1, 4)
	r.copyPage(1, 3, 0)
	if r.pages[3] != r.pages[1] {
		t.Fatal("plain copy differs from its source")
	}

	// Bit 6 is ignored for plain copies.
	r.fillPage(0, 9)
	r.copyPage(0x40, 3, 0)
	if r.pages[3][0] != 0x99 {
		t.Fatal("copy from 0x40 did not read page 0")
	}
}

func TestRenderer_CopyPageScrolled(t *testing.T) {
	r, _ := newTestRenderer(t)
	for y := range screenHeight {
		for x := range pageStride {
			r.pages[1][y*pageStride+x] = byte(y)
		}
	}

	r.copyPage(0x81, 2, 10)
	if got := r.pages[2][10*pageStride]; got != 0 {
		t.Fatalf("row 10 holds source row %d, want 0", got)
	}
	if got := r.pages[2][199*pageStride]; got != 189 {
		t.Fatalf("row 199 holds source row %d, want 189", got)
	}

	r.fillPage(2, 0xF)
	r.copyPage(0x81, 2, -10)
	if got := r.pages[2][0]; got != 10 {
		t.Fatalf("row 0 holds source row %d, want 10", got)
	}
	if got := r.pages[2][190*pageStride]; got != 0xFF {
		t.Fatalf("row 190 was written (%d) on an upward scroll", got)
	}

	r.fillPage(2, 0xF)
	r.copyPage(0x81, 2, 200)
	if r.pages[2][0] != 0xFF {
		t.Fatal("out of range scroll copied data")
	}
}

func TestRenderer_CopyBitmapPlanes(t *testing.T) {
	r, _ := newTestRenderer(t)
	src := make([]byte, bitmapSize)
	src[0] = 0x80                 // plane 0, pixel 0
	src[3*bitmapPlaneSize] = 0xC0 // plane 3, pixels 0 and 1
	src[bitmapPlaneSize+1] = 0x01 // plane 1, pixel 15
	r.CopyBitmap(src)

	if got := pixel(r, 0, 0, 0); got != 9 {
		t.Fatalf("pixel 0 = %d, want 9", got)
	}
	if got := pixel(r, 0, 1, 0); got != 8 {
		t.Fatalf("pixel 1 = %d, want 8", got)
	}
	if got := pixel(r, 0, 15, 0); got != 2 {
		t.Fatalf("pixel 15 = %d, want 2", got)
	}
	if got := pixel(r, 0, 2, 0); got != 0 {
		t.Fatalf("pixel 2 = %d, want 0", got)
	}
}

func TestRenderer_StateRoundTrip(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.bindArena(make([]byte, numPalettes*paletteSize), 0)
	r.fillPage(3, 6)
	r.selectDrawTarget(3)
	r.updateDisplay(pageBack)
	st := r.captureState()

	r2, _ := newTestRenderer(t)
	r2.bindArena(make([]byte, numPalettes*paletteSize), 0)
	r2.restoreState(st)
	if r2.draw != r.draw || r2.front != r.front || r2.back != r.back {
		t.Fatal("page aliases differ after restore")
	}
	if r2.pages != r.pages {
		t.Fatal("pages differ after restore")
	}
}
