// unpack.go - Bytekiller decompression for packed resource banks

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

// Package bytekiller implements the backwards LZ bit-stream format used by
// the resource banks. Packed blobs are read from their last byte towards the
// first and unpacked from the end of the destination towards its start.
package bytekiller

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// TrailerSize is the size of the trailer at the end of every packed blob:
// unpacked size, CRC seed and initial bit accumulator, each a big-endian word.
const TrailerSize = 12

var (
	// ErrChecksum reports a stream that decoded fully but failed the CRC.
	ErrChecksum = errors.New("bytekiller: checksum mismatch")
	// ErrCorrupt reports a stream that cannot be decoded at all.
	ErrCorrupt = errors.New("bytekiller: corrupt stream")
)

// unpackState holds the decoder state. Both cursors move towards zero.
type unpackState struct {
	src  []byte
	dst  []byte
	in   int    // next word ends at src[in]
	out  int    // next byte goes to dst[out]
	size int    // bytes still to produce
	end  int    // total unpacked size
	crc  uint32 // running CRC, zero on success
	chk  uint32 // bit accumulator
	err  error
}

// UnpackedSize returns the size recorded in the trailer of a packed blob.
func UnpackedSize(packed []byte) (int, error) {
	if len(packed) < TrailerSize {
		return 0, fmt.Errorf("%w: %d bytes is shorter than the trailer", ErrCorrupt, len(packed))
	}
	return int(binary.BigEndian.Uint32(packed[len(packed)-4:])), nil
}

// Unpack decodes packed into dst. dst must be at least as large as the size
// recorded in the trailer; bytes past that size are left untouched.
func Unpack(dst, packed []byte) error {
	size, err := UnpackedSize(packed)
	if err != nil {
		return err
	}
	if size > len(dst) {
		return fmt.Errorf("%w: unpacked size %d exceeds buffer size %d", ErrCorrupt, size, len(dst))
	}

	st := &unpackState{
		src:  packed,
		dst:  dst,
		in:   len(packed) - 4,
		size: size,
		end:  size,
		out:  size - 1,
	}
	st.in -= 4 // skip size word
	st.crc = st.word()
	st.chk = st.word()
	st.crc ^= st.chk

	for {
		if !st.nextBit() {
			if !st.nextBit() {
				st.copyLiteral(3, 0)
			} else {
				st.copyReference(8, 2)
			}
		} else {
			switch st.bits(2) {
			case 3:
				st.copyLiteral(8, 8)
			case 2:
				count := st.bits(8) + 1
				st.copyReference(12, count)
			case 1:
				st.copyReference(10, 4)
			case 0:
				st.copyReference(9, 3)
			}
		}
		if st.err != nil {
			return st.err
		}
		if st.size <= 0 {
			break
		}
	}

	if st.crc != 0 {
		return ErrChecksum
	}
	return nil
}

// word reads the big-endian word ending at the current input position and
// steps backwards.
func (st *unpackState) word() uint32 {
	if st.in < 0 {
		if st.err == nil {
			st.err = fmt.Errorf("%w: stream ended early", ErrCorrupt)
		}
		return 0
	}
	w := binary.BigEndian.Uint32(st.src[st.in : st.in+4])
	st.in -= 4
	return w
}

// nextBit rotates one bit out of the accumulator, reloading it from the
// stream when it runs empty.
func (st *unpackState) nextBit() bool {
	carry := st.chk&1 != 0
	st.chk >>= 1
	if st.chk == 0 {
		w := st.word()
		st.crc ^= w
		carry = w&1 != 0
		st.chk = 0x80000000 | w>>1
	}
	return carry
}

func (st *unpackState) bits(n int) int {
	v := 0
	for range n {
		v <<= 1
		if st.nextBit() {
			v |= 1
		}
	}
	return v
}

func (st *unpackState) copyLiteral(countBits, base int) {
	count := st.bits(countBits) + base + 1
	st.size -= count
	if st.size < 0 {
		count += st.size
		st.size = 0
	}
	for range count {
		if st.err != nil {
			return
		}
		if st.out < 0 {
			st.err = fmt.Errorf("%w: literal run overflows output", ErrCorrupt)
			return
		}
		st.dst[st.out] = byte(st.bits(8))
		st.out--
	}
}

func (st *unpackState) copyReference(offsetBits, count int) {
	st.size -= count
	if st.size < 0 {
		count += st.size
		st.size = 0
	}
	offset := st.bits(offsetBits)
	for range count {
		from := st.out + offset
		if st.out < 0 || from >= st.end {
			if st.err == nil {
				st.err = fmt.Errorf("%w: reference offset %d out of range", ErrCorrupt, offset)
			}
			return
		}
		st.dst[st.out] = st.dst[from]
		st.out--
	}
}
