// video_interface.go - Output surface and display backend interfaces

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
)

// VideoError provides detailed error context for video operations
type VideoError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

// Surface receives palettes and finished frames from the renderer. packed
// holds two pixels per byte, the even pixel in the high nibble.
type Surface interface {
	SetPalette(start, count int, colors []color.RGBA)
	PresentFrame(width, height int, packed []byte)
}

// DisplayConfig contains hardware-independent configuration
type DisplayConfig struct {
	Scale         int // Integer scaling factor for output
	Fullscreen    bool
	Title         string
	ScreenshotDir string
}

// DisplayBackend is a surface that also delivers player input.
type DisplayBackend interface {
	Surface
	InputSource

	Start() error
	Close() error
	SetStatusSource(fn func() EngineStatus)
	// Done is closed when the user closes the window.
	Done() <-chan struct{}
}

// ClampScale keeps the window scale within what a desktop can show.
func ClampScale(scale int) int {
	if scale < 1 {
		return 1
	}
	if scale > 6 {
		return 6
	}
	return scale
}

// expandFrame converts a packed 4 bit frame into RGBA pixels using pal.
func expandFrame(dst []byte, packed []byte, pal *[16]color.RGBA) {
	for i, b := range packed {
		hi := pal[b>>4]
		lo := pal[b&0x0F]
		o := i * 8
		if o+8 > len(dst) {
			return
		}
		dst[o], dst[o+1], dst[o+2], dst[o+3] = hi.R, hi.G, hi.B, 0xFF
		dst[o+4], dst[o+5], dst[o+6], dst[o+7] = lo.R, lo.G, lo.B, 0xFF
	}
}
