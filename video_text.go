// video_text.go - 8x8 glyphs and the string table used by drawString

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	glyphFirst = ' '
	glyphLast  = '~'
	textCols   = 40
	textMaxY   = screenHeight - 8
)

// glyphSet holds one 8x8 bitmap per printable ASCII character, one byte per
// row with the leftmost pixel in bit 7.
type glyphSet struct {
	rows [glyphLast - glyphFirst + 1][8]byte
}

// newGlyphSet squeezes the 7x13 basic font into 8x8 cells. Source rows 2-11
// cover caps and descenders; pairs of rows are merged so thin strokes
// survive.
func newGlyphSet() *glyphSet {
	face := basicfont.Face7x13
	g := &glyphSet{}
	const top, span = 2, 10
	for ch := glyphFirst; ch <= glyphLast; ch++ {
		dr, mask, maskp, _, ok := face.Glyph(fixed.P(0, face.Ascent), rune(ch))
		if !ok {
			continue
		}
		var cell [13]byte
		for y := 0; y < dr.Dy() && y < len(cell); y++ {
			var row byte
			for x := 0; x < dr.Dx() && x < 8; x++ {
				_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
				if a > 0x7FFF {
					row |= 0x80 >> x
				}
			}
			if ty := dr.Min.Y + y; ty >= 0 && ty < len(cell) {
				cell[ty] = row
			}
		}
		for j := range 8 {
			from := top + j*span/8
			to := top + (j+1)*span/8
			var row byte
			for y := from; y < to; y++ {
				row |= cell[y]
			}
			g.rows[ch-glyphFirst][j] = row
		}
	}
	return g
}

func (g *glyphSet) glyph(ch byte) *[8]byte {
	if ch < glyphFirst || ch > glyphLast {
		ch = glyphFirst
	}
	return &g.rows[ch-glyphFirst]
}

// drawString draws string id at column x (8 pixel units) and line y.
func (r *Renderer) drawString(color uint8, x, y uint8, id uint16) {
	s, ok := r.strings[id]
	if !ok {
		r.warnf("unknown string id %#03x", id)
		return
	}
	cx, cy := int(x), int(y)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			cy += 8
			cx = int(x)
			continue
		}
		r.drawChar(s[i], cx, cy, color)
		cx++
	}
}

func (r *Renderer) drawChar(ch byte, x, y int, color uint8) {
	if x >= textCols || y > textMaxY {
		return
	}
	g := r.font.glyph(ch)
	page := &r.pages[r.draw]
	p := y*pageStride + x*4
	for j := range 8 {
		bits := g[j]
		for i := range 4 {
			b := page[p+i]
			mask := uint8(0xFF)
			var c uint8
			if bits&0x80 != 0 {
				c |= (color & 0x0F) << 4
				mask &= 0x0F
			}
			bits <<= 1
			if bits&0x80 != 0 {
				c |= color & 0x0F
				mask &= 0xF0
			}
			bits <<= 1
			page[p+i] = b&mask | c
		}
		p += pageStride
	}
}

func defaultStrings() map[uint16]string {
	m := make(map[uint16]string, len(builtinStrings))
	for id, s := range builtinStrings {
		m[id] = s
	}
	return m
}

var builtinStrings = map[uint16]string{
	0x001: "P E A N U T  3000",
	0x002: "Copyright  } 1990 Peanut Computer, Inc.\nAll rights reserved.\n\nCDOS Version 5.01",
	0x003: "2",
	0x004: "3",
	0x005: ".",
	0x006: "A",
	0x007: "@",
	0x008: "PEANUT 3000",
	0x181: " BY",
	0x182: "ERIC CHAHI",
	0x183: "         MUSIC AND SOUND EFFECTS",
	0x184: " ",
	0x185: "JEAN-FRANCOIS FREITAS",
	0x186: "IBM PC VERSION",
	0x187: "      BY",
	0x188: " DANIEL MORAIS",
	0x18B: "THEN PRESS FIRE",
	0x18C: " PUT THE PADDLE ON THE UPPER LEFT CORNER",
	0x18D: "PUT THE PADDLE IN CENTRAL POSITION",
	0x18E: "PUT THE PADDLE ON THE LOWER RIGHT CORNER",
	0x258: "      Designed by ..... Eric Chahi",
	0x259: "    Programmed by...... Eric Chahi",
	0x25A: "      Artwork ......... Eric Chahi",
	0x25B: "Music by ........ Jean-francois Freitas",
	0x25C: "            Sound effects",
	0x25D: "        Jean-Francois Freitas\n             Eric Chahi",
	0x263: "              Thanks To",
	0x265: "Now Go Out Of This World",
}

// stringTable is the TOML layout of a string table file:
//
//	[strings]
//	"0x190" = "Good evening professor."
type stringTable struct {
	Strings map[string]string `toml:"strings"`
}

// LoadStrings merges the table in path over the current strings.
func (r *Renderer) LoadStrings(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var t stringTable
	if err := toml.Unmarshal(data, &t); err != nil {
		return 0, fmt.Errorf("parse error in %s: %w", path, err)
	}
	for k, v := range t.Strings {
		id, err := strconv.ParseUint(k, 0, 16)
		if err != nil {
			return 0, fmt.Errorf("%s: bad string id %q: %w", path, k, err)
		}
		r.strings[uint16(id)] = v
	}
	return len(t.Strings), nil
}
