// pack.go - Bytekiller compression

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package bytekiller

import "encoding/binary"

const (
	maxOffset     = 1<<12 - 1
	maxMatch      = 256
	maxLongRun    = 8 + 0xFF + 1
	maxShortRun   = 8
	chainDepth    = 48
	minHashLength = 3
)

// packer emits operations in the order the decoder consumes them, which is
// from the last byte of the input towards the first.
type packer struct {
	data  []byte
	bits  []byte // one entry per bit, in decoder order
	chain map[uint32][]int
	lits  []byte
}

// Pack compresses data. The result always decodes back to data with Unpack;
// callers that store blobs verbatim when packing does not pay off must
// compare the lengths themselves.
func Pack(data []byte) []byte {
	p := &packer{
		data:  data,
		chain: make(map[uint32][]int),
	}
	if len(data) == 0 {
		// A single empty literal run terminates the decoder immediately.
		p.put(0, 2)
		p.put(0, 3)
		return p.finish()
	}

	pos := len(data) - 1
	for pos >= 0 {
		length, offset := p.longestMatch(pos)
		useRef := length >= 3 || (length == 2 && offset <= 0xFF)
		if !useRef {
			p.lits = append(p.lits, data[pos])
			p.insert(pos)
			pos--
			continue
		}
		p.flushLiterals()
		p.reference(length, offset)
		for range length {
			p.insert(pos)
			pos--
		}
	}
	p.flushLiterals()
	return p.finish()
}

func hashAt(data []byte, q int) (uint32, bool) {
	if q < minHashLength-1 {
		return 0, false
	}
	return uint32(data[q])<<16 | uint32(data[q-1])<<8 | uint32(data[q-2]), true
}

// insert makes position q available as a match source for lower positions.
func (p *packer) insert(q int) {
	key, ok := hashAt(p.data, q)
	if !ok {
		return
	}
	list := append(p.chain[key], q)
	if len(list) > chainDepth*2 {
		list = append(list[:0:0], list[len(list)-chainDepth:]...)
	}
	p.chain[key] = list
}

func (p *packer) matchLength(pos, offset int) int {
	n := 0
	for n < maxMatch && pos-n >= 0 && p.data[pos-n] == p.data[pos-n+offset] {
		n++
	}
	return n
}

// longestMatch looks for a run ending at pos that repeats bytes already
// emitted at higher positions.
func (p *packer) longestMatch(pos int) (length, offset int) {
	if key, ok := hashAt(p.data, pos); ok {
		list := p.chain[key]
		for i, depth := len(list)-1, 0; i >= 0 && depth < chainDepth; i, depth = i-1, depth+1 {
			off := list[i] - pos
			if off > maxOffset {
				break
			}
			if n := p.matchLength(pos, off); n > length {
				length, offset = n, off
				if n == maxMatch {
					break
				}
			}
		}
	}
	if length >= 3 {
		return length, offset
	}
	// Two byte references only pay off with a short offset.
	for off := 1; off <= 0xFF && pos+off < len(p.data); off++ {
		if p.matchLength(pos, off) >= 2 {
			return 2, off
		}
	}
	return 0, 0
}

// put appends the low n bits of v, most significant first.
func (p *packer) put(v, n int) {
	for i := n - 1; i >= 0; i-- {
		p.bits = append(p.bits, byte(v>>i)&1)
	}
}

func (p *packer) flushLiterals() {
	for len(p.lits) > 0 {
		n := min(len(p.lits), maxLongRun)
		if n > maxShortRun {
			p.put(1, 1)
			p.put(3, 2)
			p.put(n-9, 8)
		} else {
			p.put(0, 2)
			p.put(n-1, 3)
		}
		for _, b := range p.lits[:n] {
			p.put(int(b), 8)
		}
		p.lits = p.lits[n:]
	}
	p.lits = p.lits[:0]
}

func (p *packer) reference(length, offset int) {
	switch {
	case length == 2:
		p.put(0, 1)
		p.put(1, 1)
		p.put(offset, 8)
	case length == 3 && offset < 1<<9:
		p.put(1, 1)
		p.put(0, 2)
		p.put(offset, 9)
	case length == 4 && offset < 1<<10:
		p.put(1, 1)
		p.put(1, 2)
		p.put(offset, 10)
	default:
		p.put(1, 1)
		p.put(2, 2)
		p.put(length-1, 8)
		p.put(offset, 12)
	}
}

// finish groups the bit stream into words. The first word read by the
// decoder carries the leftover bits below a marker bit; every other word is
// full. Words are stored back to front, followed by the trailer.
func (p *packer) finish() []byte {
	lead := len(p.bits) % 32
	words := make([]uint32, 0, len(p.bits)/32+1)

	first := uint32(1) << lead
	for i := range lead {
		first |= uint32(p.bits[i]) << i
	}
	words = append(words, first)
	for start := lead; start < len(p.bits); start += 32 {
		var w uint32
		for i := range 32 {
			w |= uint32(p.bits[start+i]) << i
		}
		words = append(words, w)
	}

	var crc uint32
	for _, w := range words {
		crc ^= w
	}

	out := make([]byte, 0, 4*len(words)+TrailerSize)
	for i := len(words) - 1; i >= 1; i-- {
		out = binary.BigEndian.AppendUint32(out, words[i])
	}
	out = binary.BigEndian.AppendUint32(out, words[0])
	out = binary.BigEndian.AppendUint32(out, crc)
	out = binary.BigEndian.AppendUint32(out, uint32(len(p.data)))
	return out
}
