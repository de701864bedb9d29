// video_capture.go - Off-screen surface and PNG screenshots

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// CaptureSurface keeps the last presented frame in memory. It backs headless
// runs and screenshot export.
type CaptureSurface struct {
	mu      sync.Mutex
	palette [16]color.RGBA
	frame   [pageSize]byte
	frames  uint64
}

func NewCaptureSurface() *CaptureSurface {
	return &CaptureSurface{}
}

func (c *CaptureSurface) SetPalette(start, count int, colors []color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < count && i < len(colors) && start+i < len(c.palette); i++ {
		c.palette[start+i] = colors[i]
	}
}

func (c *CaptureSurface) PresentFrame(width, height int, packed []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width != screenWidth || height != screenHeight {
		return
	}
	copy(c.frame[:], packed)
	c.frames++
}

// FrameCount returns the number of frames presented so far.
func (c *CaptureSurface) FrameCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Frame returns a copy of the packed frame and the palette it uses.
func (c *CaptureSurface) Frame() ([]byte, [16]color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.frame[:]...), c.palette
}

// Image renders the last frame.
func (c *CaptureSurface) Image() *image.RGBA {
	frame, pal := c.Frame()
	return frameImage(frame, &pal)
}

// captureDisplay is the window-less DisplayBackend used for headless runs.
type captureDisplay struct {
	*CaptureSurface
	noInput
	done chan struct{}
}

func newCaptureDisplay() *captureDisplay {
	return &captureDisplay{CaptureSurface: NewCaptureSurface(), done: make(chan struct{})}
}

func (d *captureDisplay) Start() error                        { return nil }
func (d *captureDisplay) Close() error                        { return nil }
func (d *captureDisplay) Done() <-chan struct{}               { return d.done }
func (d *captureDisplay) SetStatusSource(func() EngineStatus) {}

func frameImage(packed []byte, pal *[16]color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight))
	expandFrame(img.Pix, packed, pal)
	return img
}

// encodePNG scales img by an integer factor and encodes it.
func encodePNG(img image.Image, scale int) ([]byte, error) {
	scale = ClampScale(scale)
	if scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &VideoError{Operation: "screenshot", Details: "png encode", Err: err}
	}
	return buf.Bytes(), nil
}

// saveScreenshot writes img as a timestamped PNG in dir and returns its path.
func saveScreenshot(dir string, img image.Image, scale int) (string, error) {
	data, err := encodePNG(img, scale)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &VideoError{Operation: "screenshot", Details: dir, Err: err}
	}
	name := fmt.Sprintf("frame-%s.png", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &VideoError{Operation: "screenshot", Details: path, Err: err}
	}
	return path, nil
}
