// mem_cursor.go - Bounds checked read cursor over the resource arena

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

// memCursor reads big-endian values from a segment of the arena. Offsets are
// relative to base. The first out of range access is latched in err and every
// later read returns zero, so callers check err once per instruction.
type memCursor struct {
	mem  []byte
	base int
	pos  int
	err  error
}

func (c *memCursor) reset(mem []byte, base, offset int) {
	c.mem = mem
	c.base = base
	c.pos = base + offset
	c.err = nil
}

// offset returns the position relative to the segment base.
func (c *memCursor) offset() int {
	return c.pos - c.base
}

func (c *memCursor) seek(offset int) {
	c.pos = c.base + offset
}

func (c *memCursor) fault(n int) bool {
	if c.err != nil {
		return true
	}
	if c.pos < 0 || c.pos+n > len(c.mem) {
		c.err = engineErrorf("fetch", ErrOutOfRange, "read of %d bytes at arena offset %#x", n, c.pos)
		return true
	}
	return false
}

func (c *memCursor) fetchByte() uint8 {
	if c.fault(1) {
		return 0
	}
	b := c.mem[c.pos]
	c.pos++
	return b
}

func (c *memCursor) fetchWord() uint16 {
	if c.fault(2) {
		return 0
	}
	w := uint16(c.mem[c.pos])<<8 | uint16(c.mem[c.pos+1])
	c.pos += 2
	return w
}

// peekByte reads the next byte without advancing.
func (c *memCursor) peekByte() uint8 {
	if c.fault(1) {
		return 0
	}
	return c.mem[c.pos]
}

func (c *memCursor) skip(n int) {
	c.pos += n
}

func readBE16(mem []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(mem) {
		return 0, false
	}
	return uint16(mem[off])<<8 | uint16(mem[off+1]), true
}
