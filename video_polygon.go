// video_polygon.go - Polygon decoding, hierarchy walk and scan-line fill

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

const (
	maxPolygonPoints = 50

	// Colors below colorOverlay are solid, above it copy from page 0.
	colorOverlay    = 0x10 // set bit 3 of every covered pixel
	colorRecolorBit = 0x80
	defaultZoom     = 0x40
)

type point struct {
	x, y int16
}

type polygon struct {
	bbw, bbh uint16
	n        int
	points   [maxPolygonPoints]point
}

// setDataBuffer points the polygon reader at offset bytes into the segment
// starting at seg.
func (r *Renderer) setDataBuffer(seg, offset int) {
	r.segData = seg
	r.data.reset(r.mem, seg, offset)
}

func scale(v uint8, zoom uint16) int {
	return int(v) * int(zoom) / 64
}

// readAndDrawPolygon draws the shape at the data cursor. A color with bit 7
// set takes the color from the shape descriptor.
func (r *Renderer) readAndDrawPolygon(color uint8, zoom uint16, pt point) {
	i := r.data.fetchByte()
	if r.data.err != nil {
		r.warnf("polygon data: %v", r.data.err)
		return
	}
	if i >= 0xC0 {
		if color&colorRecolorBit != 0 {
			color = i & 0x3F
		}
		r.fillPolygon(color, zoom, pt)
		return
	}
	i &= 0x3F
	if i == 2 {
		r.readAndDrawPolygonHierarchy(zoom, pt)
		return
	}
	r.warnf("unsupported polygon descriptor %#02x at segment offset %#x", i, r.data.offset()-1)
}

func (r *Renderer) readAndDrawPolygonHierarchy(zoom uint16, anchor point) {
	pt := anchor
	pt.x -= int16(scale(r.data.fetchByte(), zoom))
	pt.y -= int16(scale(r.data.fetchByte(), zoom))
	children := int(r.data.fetchByte())
	for ; children >= 0; children-- {
		off := r.data.fetchWord()
		po := pt
		po.x += int16(scale(r.data.fetchByte(), zoom))
		po.y += int16(scale(r.data.fetchByte(), zoom))
		color := uint8(0xFF)
		if off&0x8000 != 0 {
			color = r.data.peekByte() & 0x7F
			r.data.skip(2)
		}
		if r.data.err != nil {
			r.warnf("polygon hierarchy: %v", r.data.err)
			return
		}
		saved := r.data.pos
		r.data.seek(int(off&0x7FFF) * 2)
		r.readAndDrawPolygon(color, zoom, po)
		r.data.err = nil
		r.data.pos = saved
	}
}

// fillPolygon decodes the point list at the data cursor, centred on pt.
func (r *Renderer) fillPolygon(color uint8, zoom uint16, pt point) {
	p := &r.poly
	p.bbw = uint16(scale(r.data.fetchByte(), zoom))
	p.bbh = uint16(scale(r.data.fetchByte(), zoom))

	x1 := pt.x - int16(p.bbw/2)
	x2 := pt.x + int16(p.bbw/2)
	y1 := pt.y - int16(p.bbh/2)
	y2 := pt.y + int16(p.bbh/2)
	if x1 > screenWidth-1 || x2 < 0 || y1 > screenHeight-1 || y2 < 0 {
		return
	}

	p.n = int(r.data.fetchByte())
	if p.n&1 != 0 || p.n < 2 || p.n > maxPolygonPoints {
		r.warnf("unexpected number of polygon points %d", p.n)
		return
	}
	for i := 0; i < p.n; i++ {
		p.points[i].x = x1 + int16(scale(r.data.fetchByte(), zoom))
		p.points[i].y = y1 + int16(scale(r.data.fetchByte(), zoom))
	}
	if r.data.err != nil {
		r.warnf("polygon points: %v", r.data.err)
		return
	}

	if p.n == 4 && p.bbw == 0 && p.bbh <= 1 {
		r.drawPoint(color, pt.x, pt.y)
		return
	}
	r.rasterize(color, p, y1)
}

// calcStep returns the 16.16 per-line x step from p1 to p2 and the line
// count.
func (r *Renderer) calcStep(p1, p2 point) (int32, uint16, bool) {
	dy := uint16(p2.y - p1.y)
	if int(dy) >= interpTableLen {
		return 0, 0, false
	}
	return int32(p2.x-p1.x) * int32(r.interp[dy]) * 4, dy, true
}

// rasterize walks the outline from both ends towards the middle. The left
// edge runs from the last point backwards, the right edge from the first
// point forwards. Scanning starts at top, the top of the bounding box.
func (r *Renderer) rasterize(color uint8, p *polygon, top int16) {
	i, j := 0, p.n-1
	x2 := p.points[i].x
	x1 := p.points[j].x
	r.hliney = top
	i++
	j--

	span := r.spanFunc(color)
	if span == nil {
		return
	}

	cpt1 := uint32(int32(x1)) << 16
	cpt2 := uint32(int32(x2)) << 16
	remaining := p.n
	for {
		remaining -= 2
		if remaining <= 0 {
			return
		}
		step1, _, ok1 := r.calcStep(p.points[j+1], p.points[j])
		step2, h, ok2 := r.calcStep(p.points[i-1], p.points[i])
		if !ok1 || !ok2 {
			r.warnf("polygon edge runs upwards")
			return
		}
		i++
		j--

		cpt1 = cpt1&0xFFFF0000 | 0x7FFF
		cpt2 = cpt2&0xFFFF0000 | 0x8000

		if h == 0 {
			cpt1 += uint32(step1)
			cpt2 += uint32(step2)
			continue
		}
		for ; h != 0; h-- {
			if r.hliney > screenHeight-1 {
				return
			}
			if r.hliney >= 0 {
				xa := int16(cpt1 >> 16)
				xb := int16(cpt2 >> 16)
				lo, hi := min(xa, xb), max(xa, xb)
				if lo <= screenWidth-1 && hi >= 0 {
					span(max(lo, 0), min(hi, screenWidth-1), color)
				}
			}
			cpt1 += uint32(step1)
			cpt2 += uint32(step2)
			r.hliney++
		}
	}
}

func (r *Renderer) spanFunc(color uint8) func(x1, x2 int16, color uint8) {
	switch {
	case color < colorOverlay:
		return r.drawLineSolid
	case color == colorOverlay:
		return r.drawLineOverlay
	}
	if r.draw == 0 {
		return nil
	}
	return r.drawLinePage0
}

// spanBounds returns the first byte of the span and the count of full bytes
// between the partial bytes at each end.
func spanBounds(x1, x2 int16) (start, w int, left, right bool) {
	start = int(x1) / 2
	w = int(x2)/2 - int(x1)/2 + 1
	if x1&1 != 0 {
		w--
		left = true
	}
	if x2&1 == 0 {
		w--
		right = true
	}
	return
}

func (r *Renderer) drawLineSolid(x1, x2 int16, color uint8) {
	row := r.pages[r.draw][int(r.hliney)*pageStride : (int(r.hliney)+1)*pageStride]
	start, w, left, right := spanBounds(x1, x2)
	c := (color&0x0F)<<4 | color&0x0F
	p := start
	if left {
		row[p] = row[p]&0xF0 | c&0x0F
		p++
	}
	for ; w > 0; w-- {
		row[p] = c
		p++
	}
	if right {
		row[p] = row[p]&0x0F | c&0xF0
	}
}

func (r *Renderer) drawLineOverlay(x1, x2 int16, _ uint8) {
	row := r.pages[r.draw][int(r.hliney)*pageStride : (int(r.hliney)+1)*pageStride]
	start, w, left, right := spanBounds(x1, x2)
	p := start
	if left {
		row[p] = row[p]&0xF7 | 0x08
		p++
	}
	for ; w > 0; w-- {
		row[p] = row[p]&0x77 | 0x88
		p++
	}
	if right {
		row[p] = row[p]&0x7F | 0x80
	}
}

func (r *Renderer) drawLinePage0(x1, x2 int16, _ uint8) {
	off := int(r.hliney) * pageStride
	row := r.pages[r.draw][off : off+pageStride]
	src := r.pages[0][off : off+pageStride]
	start, w, left, right := spanBounds(x1, x2)
	p := start
	if left {
		row[p] = row[p]&0xF0 | src[p]&0x0F
		p++
	}
	for ; w > 0; w-- {
		row[p] = src[p]
		p++
	}
	if right {
		row[p] = row[p]&0x0F | src[p]&0xF0
	}
}

func (r *Renderer) drawPoint(color uint8, x, y int16) {
	if x < 0 || x > screenWidth-1 || y < 0 || y > screenHeight-1 {
		return
	}
	off := int(y)*pageStride + int(x)/2
	mask := uint8(0xF0)
	if x&1 != 0 {
		mask = 0x0F
	}
	var c uint8
	switch {
	case color < colorOverlay:
		c = (color&0x0F)<<4 | color&0x0F
	case color == colorOverlay:
		mask &= 0x88
		c = 0x88
	default:
		c = r.pages[0][off]
	}
	b := &r.pages[r.draw][off]
	*b = *b&^mask | c&mask
}
