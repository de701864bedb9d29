// bank.go - Bank file access

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package archive

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/intuitionamiga/PolygonEngine/bytekiller"
)

// BankName returns the file name of a bank.
func BankName(id uint8) string {
	return fmt.Sprintf("bank%02x", id)
}

// BankReader reads resources out of the bank files of one data set.
type BankReader struct {
	fsys fs.FS
}

func NewBankReader(fsys fs.FS) *BankReader {
	return &BankReader{fsys: fsys}
}

// ReadPacked returns the bytes stored in the bank for d, compressed or not.
func (b *BankReader) ReadPacked(d *Descriptor) ([]byte, error) {
	name := BankName(d.BankID)
	f, err := Open(b.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", name, err)
	}
	defer f.Close()

	buf := make([]byte, d.PackedSize)
	if ra, ok := f.(io.ReaderAt); ok {
		if _, err := ra.ReadAt(buf, int64(d.BankOffset)); err != nil {
			return nil, fmt.Errorf("archive: read %s@%#x: %w", name, d.BankOffset, err)
		}
		return buf, nil
	}
	if s, ok := f.(io.Seeker); ok {
		if _, err := s.Seek(int64(d.BankOffset), io.SeekStart); err != nil {
			return nil, fmt.Errorf("archive: seek %s@%#x: %w", name, d.BankOffset, err)
		}
	} else if _, err := io.CopyN(io.Discard, f, int64(d.BankOffset)); err != nil {
		return nil, fmt.Errorf("archive: skip %s@%#x: %w", name, d.BankOffset, err)
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("archive: read %s@%#x: %w", name, d.BankOffset, err)
	}
	return buf, nil
}

// Read loads the resource described by d into dst, which must hold at least
// d.UnpackedSize bytes.
func (b *BankReader) Read(d *Descriptor, dst []byte) error {
	if len(dst) < int(d.UnpackedSize) {
		return fmt.Errorf("archive: destination holds %d bytes, resource needs %d", len(dst), d.UnpackedSize)
	}
	packed, err := b.ReadPacked(d)
	if err != nil {
		return err
	}
	if !d.Packed() {
		copy(dst, packed)
		return nil
	}
	if err := bytekiller.Unpack(dst[:d.UnpackedSize], packed); err != nil {
		return fmt.Errorf("archive: %s@%#x: %w", BankName(d.BankID), d.BankOffset, err)
	}
	return nil
}

// Load returns a freshly allocated copy of the resource described by d.
func (b *BankReader) Load(d *Descriptor) ([]byte, error) {
	buf := make([]byte, d.UnpackedSize)
	if err := b.Read(d, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Builder assembles an in-memory data set: a directory and its bank files.
// Resources are packed when that makes them smaller.
type Builder struct {
	Descriptors []Descriptor
	Banks       map[uint8][]byte
	NoPack      bool
}

func NewBuilder() *Builder {
	return &Builder{Banks: make(map[uint8][]byte)}
}

// Add appends data as a resource stored in bank and returns its index.
func (b *Builder) Add(kind Kind, rank, bank uint8, data []byte) (int, error) {
	if len(data) > 0xFFFF {
		return 0, fmt.Errorf("archive: resource of %d bytes does not fit a directory record", len(data))
	}
	stored := data
	if !b.NoPack && len(data) > 0 {
		if packed := bytekiller.Pack(data); len(packed) < len(data) {
			stored = packed
		}
	}
	d := Descriptor{
		State:        StateNotNeeded,
		Kind:         kind,
		Rank:         rank,
		BankID:       bank,
		BankOffset:   uint32(len(b.Banks[bank])),
		PackedSize:   uint16(len(stored)),
		UnpackedSize: uint16(len(data)),
	}
	b.Banks[bank] = append(b.Banks[bank], stored...)
	b.Descriptors = append(b.Descriptors, d)
	return len(b.Descriptors) - 1, nil
}

// Directory encodes the directory file.
func (b *Builder) Directory() []byte {
	var out []byte
	for _, d := range b.Descriptors {
		out = AppendRecord(out, d)
	}
	return AppendEndOfList(out)
}
