// video_renderer.go - Framebuffer pages, palettes and page operations

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
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	screenWidth  = 320
	screenHeight = 200
	pageStride   = screenWidth / 2
	pageSize     = pageStride * screenHeight
	numPages     = 4

	bitmapPlaneSize = pageSize / 4
	bitmapSize      = bitmapPlaneSize * 4

	pageFront = 0xFE
	pageBack  = 0xFF

	numPalettes    = 32
	paletteSize    = 32
	paletteNone    = 0xFF
	interpTableLen = 0x400
)

// Renderer owns the four framebuffer pages. draw, front and back index
// into pages; front is what the surface shows.
type Renderer struct {
	pages [numPages][pageSize]byte
	draw  int
	front int
	back  int

	currentPalette   uint8
	requestedPalette uint8
	palette          [16]color.RGBA

	mem        []byte // resource arena
	segPalette int
	data       memCursor // polygon data
	segData    int
	poly       polygon
	hliney     int16

	interp  [interpTableLen]uint16
	strings map[uint16]string
	font    *glyphSet

	surface Surface
	log     *slog.Logger
	warn    rate.Sometimes
}

func NewRenderer(surface Surface, log *slog.Logger) *Renderer {
	r := &Renderer{
		surface: surface,
		log:     log,
		strings: defaultStrings(),
		font:    newGlyphSet(),
		warn:    rate.Sometimes{First: 8, Interval: time.Second},
	}
	r.interp[0] = 0x4000
	for i := 1; i < interpTableLen; i++ {
		r.interp[i] = uint16(0x4000 / i)
	}
	r.init()
	return r
}

func (r *Renderer) init() {
	r.requestedPalette = paletteNone
	r.back = 1
	r.front = 2
	r.selectDrawTarget(pageFront)
}

// bindArena sets the memory palettes and polygon data are read from.
func (r *Renderer) bindArena(mem []byte, segPalette int) {
	r.mem = mem
	r.segPalette = segPalette
}

func (r *Renderer) warnf(format string, args ...any) {
	r.warn.Do(func() {
		r.log.Warn(fmt.Sprintf(format, args...))
	})
}

// pageIndex resolves a page code to a page number.
func (r *Renderer) pageIndex(code uint8) int {
	if code <= 3 {
		return int(code)
	}
	switch code {
	case pageBack:
		return r.back
	case pageFront:
		return r.front
	}
	r.warnf("unknown page code %#02x, using page 0", code)
	return 0
}

func (r *Renderer) selectDrawTarget(code uint8) {
	r.draw = r.pageIndex(code)
}

func (r *Renderer) fillPage(code, color uint8) {
	c := (color&0x0F)<<4 | color&0x0F
	p := &r.pages[r.pageIndex(code)]
	for i := range p {
		p[i] = c
	}
}

// copyPage copies src to dst. A source code with bit 7 set and below 0xFE
// selects a copy of page src&3 shifted by vscroll lines.
func (r *Renderer) copyPage(src, dst uint8, vscroll int16) {
	if src == dst {
		return
	}
	if src >= pageFront || src&0x80 == 0 {
		if src < pageFront {
			src &= 0xBF
		}
		from := r.pageIndex(src)
		to := r.pageIndex(dst)
		if from != to {
			r.pages[to] = r.pages[from]
		}
		return
	}
	from := &r.pages[src&3]
	to := &r.pages[r.pageIndex(dst)]
	if vscroll < -199 || vscroll > 199 {
		return
	}
	h := screenHeight
	var p, q int
	if vscroll < 0 {
		h += int(vscroll)
		p = -int(vscroll) * pageStride
	} else {
		h -= int(vscroll)
		q = int(vscroll) * pageStride
	}
	copy(to[q:q+h*pageStride], from[p:p+h*pageStride])
}

// CopyBitmap converts a 4 plane 320x200 bitmap into page 0. Plane 3 holds
// the most significant bit of each pixel.
func (r *Renderer) CopyBitmap(src []byte) {
	if len(src) < bitmapSize {
		r.warnf("bitmap of %d bytes is too short", len(src))
		return
	}
	dst := r.pages[0][:0]
	for s := 0; s < bitmapPlaneSize; s++ {
		p := [4]byte{src[s+3*bitmapPlaneSize], src[s+2*bitmapPlaneSize], src[s+bitmapPlaneSize], src[s]}
		for range 4 {
			var acc byte
			for i := range 8 {
				acc <<= 1
				acc |= p[i&3] >> 7
				p[i&3] <<= 1
			}
			dst = append(dst, acc)
		}
	}
}

func (r *Renderer) setPaletteRequest(id uint8) {
	r.requestedPalette = id
}

// unpackColor expands a 0x0RGB word into 8 bit components.
func unpackColor(c uint16) color.RGBA {
	red := uint8(c>>8) & 0x0F
	green := uint8(c>>4) & 0x0F
	blue := uint8(c) & 0x0F
	return color.RGBA{red<<4 | red, green<<4 | green, blue<<4 | blue, 0xFF}
}

func (r *Renderer) changePalette(id uint8) {
	if id >= numPalettes {
		r.warnf("palette %d out of range", id)
		return
	}
	base := r.segPalette + int(id)*paletteSize
	for i := range r.palette {
		c, ok := readBE16(r.mem, base+i*2)
		if !ok {
			r.warnf("palette %d lies outside the arena", id)
			return
		}
		r.palette[i] = unpackColor(c)
	}
	r.currentPalette = id
	if r.surface != nil {
		r.surface.SetPalette(0, len(r.palette), r.palette[:])
	}
}

// updateDisplay flips or rebinds the front page, applies a pending palette
// and presents the front page.
func (r *Renderer) updateDisplay(code uint8) {
	if code != pageFront {
		if code == pageBack {
			r.front, r.back = r.back, r.front
		} else {
			r.front = r.pageIndex(code)
		}
	}
	if r.requestedPalette != paletteNone {
		r.changePalette(r.requestedPalette)
		r.requestedPalette = paletteNone
	}
	if r.surface != nil {
		r.surface.PresentFrame(screenWidth, screenHeight, r.pages[r.front][:])
	}
}

// aliasMask packs the page aliases as draw<<4 | front<<2 | back.
func (r *Renderer) aliasMask() uint8 {
	return uint8(r.draw<<4 | r.front<<2 | r.back)
}

func (r *Renderer) setAliasMask(m uint8) {
	r.draw = int(m>>4) & 3
	r.front = int(m>>2) & 3
	r.back = int(m) & 3
}

// videoState is the saved form of the renderer.
type videoState struct {
	currentPalette   uint8
	requestedPalette uint8
	mask             uint8
	pages            [numPages][pageSize]byte
}

func (r *Renderer) captureState() *videoState {
	return &videoState{
		currentPalette:   r.currentPalette,
		requestedPalette: r.requestedPalette,
		mask:             r.aliasMask(),
		pages:            r.pages,
	}
}

func (r *Renderer) restoreState(st *videoState) {
	r.currentPalette = st.currentPalette
	r.requestedPalette = st.requestedPalette
	r.setAliasMask(st.mask)
	r.pages = st.pages
	if r.mem != nil {
		r.changePalette(r.currentPalette)
	}
}
