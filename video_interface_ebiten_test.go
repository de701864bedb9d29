//go:build !headless

package main

import (
	"image/color"
	"testing"
)

func TestEbitenOutput_ImplementsDisplayBackend(t *testing.T) {
	var _ DisplayBackend = (*EbitenOutput)(nil)
	b, err := newDisplayBackend(DisplayConfig{Scale: 9}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	eo := b.(*EbitenOutput)
	if eo.scale != 6 || eo.title != "Polygon Engine" {
		t.Fatalf("scale %d title %q", eo.scale, eo.title)
	}
}

func TestEbitenOutput_FrameExpansion(t *testing.T) {
	eo := NewEbitenOutput(DisplayConfig{Scale: 2}, discardLogger())
	packed := make([]byte, pageSize)
	packed[0] = 0x12

	eo.PresentFrame(screenWidth, screenHeight, packed)
	eo.SetPalette(1, 2, []color.RGBA{{10, 20, 30, 255}, {40, 50, 60, 255}})

	want := []byte{10, 20, 30, 0xFF, 40, 50, 60, 0xFF}
	for i, b := range want {
		if eo.frameBuffer[i] != b {
			t.Fatalf("frame buffer % x, want % x", eo.frameBuffer[:8], want)
		}
	}

	// Frames of the wrong size are dropped.
	eo.PresentFrame(10, 10, make([]byte, pageSize))
	if eo.packed[0] != 0x12 {
		t.Fatal("mis-sized frame replaced the last one")
	}
}
