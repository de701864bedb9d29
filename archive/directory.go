// directory.go - Resource directory (memlist) parsing

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

// Package archive reads the resource directory and the numbered bank files
// holding raw or bytekiller-packed resources.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// DirectoryFile is the name of the resource directory inside a data set.
const DirectoryFile = "memlist.bin"

// RecordSize is the size of one directory record.
const RecordSize = 20

// State of a resource descriptor.
type State uint8

const (
	StateNotNeeded State = 0
	StateLoaded    State = 1
	StateLoadMe    State = 2
	stateEndOfList State = 0xFF
)

func (s State) String() string {
	switch s {
	case StateNotNeeded:
		return "not-needed"
	case StateLoaded:
		return "loaded"
	case StateLoadMe:
		return "load-me"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Kind of a resource.
type Kind uint8

const (
	KindSound            Kind = 0
	KindMusic            Kind = 1
	KindPolygonAnimation Kind = 2 // 4-plane 320x200 bitmap
	KindPalette          Kind = 3
	KindBytecode         Kind = 4
	KindPolygonCinematic Kind = 5
	KindPolygonShapes    Kind = 6 // shared shape set used as the second video segment
)

var kindNames = [...]string{"sound", "music", "bitmap", "palette", "bytecode", "cinematic", "shapes"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind returns the kind named s, as printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("archive: unknown resource kind %q", s)
}

// Descriptor is one directory entry. Offset is the position of the loaded
// data inside the engine arena and is only meaningful while State is
// StateLoaded.
type Descriptor struct {
	State        State
	Kind         Kind
	Offset       int
	Rank         uint8
	BankID       uint8
	BankOffset   uint32
	PackedSize   uint16
	UnpackedSize uint16
}

// Packed reports whether the bank holds the resource compressed.
func (d *Descriptor) Packed() bool {
	return d.PackedSize != d.UnpackedSize
}

// ErrNoDirectory is returned when the data set has no directory file.
var ErrNoDirectory = errors.New("archive: resource directory not found")

// ReadDirectory loads the directory file from fsys.
func ReadDirectory(fsys fs.FS) ([]Descriptor, error) {
	f, err := Open(fsys, DirectoryFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrNoDirectory, err)
		}
		return nil, err
	}
	defer f.Close()
	return ParseDirectory(f)
}

// ParseDirectory decodes directory records until the end-of-list marker.
// A missing marker at end of file is tolerated.
func ParseDirectory(r io.Reader) ([]Descriptor, error) {
	var list []Descriptor
	var rec [RecordSize]byte
	for {
		n, err := io.ReadFull(r, rec[:])
		if n > 0 && State(rec[0]) == stateEndOfList {
			return list, nil
		}
		if err == io.EOF {
			return list, nil
		}
		if err != nil {
			return nil, fmt.Errorf("archive: directory record %d: %w", len(list), err)
		}
		d := Descriptor{
			State:        State(rec[0]),
			Kind:         Kind(rec[1]),
			Rank:         rec[6],
			BankID:       rec[7],
			BankOffset:   binary.BigEndian.Uint32(rec[8:12]),
			PackedSize:   binary.BigEndian.Uint16(rec[14:16]),
			UnpackedSize: binary.BigEndian.Uint16(rec[18:20]),
		}
		if d.PackedSize > d.UnpackedSize {
			return nil, fmt.Errorf("archive: directory record %d: packed size %d exceeds unpacked size %d",
				len(list), d.PackedSize, d.UnpackedSize)
		}
		list = append(list, d)
	}
}

// AppendRecord encodes d as a directory record.
func AppendRecord(b []byte, d Descriptor) []byte {
	var rec [RecordSize]byte
	rec[0] = byte(d.State)
	rec[1] = byte(d.Kind)
	rec[6] = d.Rank
	rec[7] = d.BankID
	binary.BigEndian.PutUint32(rec[8:12], d.BankOffset)
	binary.BigEndian.PutUint16(rec[14:16], d.PackedSize)
	binary.BigEndian.PutUint16(rec[18:20], d.UnpackedSize)
	return append(b, rec[:]...)
}

// AppendEndOfList appends the end-of-list record.
func AppendEndOfList(b []byte) []byte {
	var rec [RecordSize]byte
	rec[0] = byte(stateEndOfList)
	return append(b, rec[:]...)
}

// Open opens name in fsys, retrying with upper and lower case variants since
// data sets copied from floppies come in either case.
func Open(fsys fs.FS, name string) (fs.File, error) {
	f, err := fsys.Open(name)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return f, err
	}
	for _, alt := range []string{strings.ToUpper(name), strings.ToLower(name)} {
		if alt == name {
			continue
		}
		if f, altErr := fsys.Open(alt); altErr == nil {
			return f, nil
		}
	}
	return nil, err
}
