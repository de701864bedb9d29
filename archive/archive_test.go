package archive

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/intuitionamiga/PolygonEngine/bytekiller"
)

func buildFS(t *testing.T, b *Builder, upper bool) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{}
	dir := DirectoryFile
	if upper {
		dir = "MEMLIST.BIN"
	}
	fsys[dir] = &fstest.MapFile{Data: b.Directory()}
	for id, data := range b.Banks {
		name := BankName(id)
		if upper {
			name = strings.ToUpper(name)
		}
		fsys[name] = &fstest.MapFile{Data: data}
	}
	return fsys
}

func TestReadDirectory_Records(t *testing.T) {
	b := NewBuilder()
	pal := bytes.Repeat([]byte{0x0F, 0xF0}, 16*32)
	code := []byte{0x06, 0x07, 0x00, 0x00}
	if _, err := b.Add(KindPalette, 3, 1, pal); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Add(KindBytecode, 5, 1, code); err != nil {
		t.Fatal(err)
	}

	list, err := ReadDirectory(buildFS(t, b, false))
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(list))
	}
	if list[0].Kind != KindPalette || list[0].Rank != 3 || list[0].BankID != 1 {
		t.Errorf("descriptor 0 = %+v", list[0])
	}
	if !list[0].Packed() {
		t.Errorf("repetitive palette should have been stored packed")
	}
	if list[1].Packed() {
		t.Errorf("tiny bytecode should have been stored verbatim")
	}
	if list[1].BankOffset != uint32(list[0].PackedSize) {
		t.Errorf("bank offset = %d, want %d", list[1].BankOffset, list[0].PackedSize)
	}
}

func TestReadDirectory_Missing(t *testing.T) {
	_, err := ReadDirectory(fstest.MapFS{})
	if !errors.Is(err, ErrNoDirectory) {
		t.Fatalf("expected ErrNoDirectory, got %v", err)
	}
}

func TestParseDirectory_RejectsInflatedPackedSize(t *testing.T) {
	rec := AppendRecord(nil, Descriptor{Kind: KindSound, BankID: 1, PackedSize: 10, UnpackedSize: 5})
	if _, err := ParseDirectory(bytes.NewReader(rec)); err == nil {
		t.Fatal("expected an error for packed size larger than unpacked size")
	}
}

func TestParseDirectory_TruncatedRecord(t *testing.T) {
	rec := AppendRecord(nil, Descriptor{Kind: KindSound, BankID: 1})
	if _, err := ParseDirectory(bytes.NewReader(rec[:12])); err == nil {
		t.Fatal("expected an error for a truncated record")
	}
}

func TestBankReader_CaseInsensitive(t *testing.T) {
	b := NewBuilder()
	data := bytes.Repeat([]byte("polygons "), 100)
	b.Add(KindPolygonCinematic, 1, 0x0D, data)

	fsys := buildFS(t, b, true)
	list, err := ReadDirectory(fsys)
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}
	got, err := NewBankReader(fsys).Load(&list[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("resource mismatch after unpacking")
	}
}

func TestBankReader_CorruptBank(t *testing.T) {
	b := NewBuilder()
	data := bytes.Repeat([]byte("checksum "), 100)
	b.Add(KindBytecode, 1, 2, data)
	fsys := buildFS(t, b, false)
	bank := fsys[BankName(2)].Data
	bank[len(bank)-6] ^= 0x01

	list, err := ReadDirectory(fsys)
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewBankReader(fsys).Load(&list[0])
	if !errors.Is(err, bytekiller.ErrChecksum) && !errors.Is(err, bytekiller.ErrCorrupt) {
		t.Fatalf("expected a bytekiller error, got %v", err)
	}
}

func TestBankReader_MissingBank(t *testing.T) {
	d := Descriptor{Kind: KindSound, BankID: 9, PackedSize: 4, UnpackedSize: 4}
	if _, err := NewBankReader(fstest.MapFS{}).Load(&d); err == nil {
		t.Fatal("expected an error for a missing bank")
	}
}

func TestBankReader_ShortBank(t *testing.T) {
	fsys := fstest.MapFS{BankName(1): &fstest.MapFile{Data: []byte{1, 2, 3}}}
	d := Descriptor{Kind: KindSound, BankID: 1, BankOffset: 2, PackedSize: 4, UnpackedSize: 4}
	if _, err := NewBankReader(fsys).Load(&d); err == nil {
		t.Fatal("expected an error reading past the end of a bank")
	}
}
