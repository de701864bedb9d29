// resource_manager.go - Resource arena, directory state and part loading

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

/*
The arena is one fixed buffer. Bytecode, palettes, shapes and sounds are
stacked from offset 0 upwards by the forward cursor. The top of the arena
holds two 32 KiB slots used in turn to unpack background bitmaps before they
are converted into page 0.

	0                scriptCur            vidBak          arenaSize
	| loaded resources |       free       | slot 0 | slot 1 |
*/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/intuitionamiga/PolygonEngine/archive"
)

const (
	arenaSize     = 600 * 1024
	videoSlotSize = 0x8000
	videoSlots    = 2

	partFirst      = 0x3E80
	partLast       = 0x3E89
	partProtection = 0x3E80
	partIntro      = 0x3E81
	partPassword   = 0x3E89

	maxSavedResources = 64
)

// partResources lists the directory indices a part needs. video2 is zero
// when the part has no shared shape set.
type partResources struct {
	palette, bytecode, cinematic, video2 uint8
}

var partTable = [partLast - partFirst + 1]partResources{
	{0x14, 0x15, 0x16, 0x00}, // protection screen
	{0x17, 0x18, 0x19, 0x00}, // introduction
	{0x1A, 0x1B, 0x1C, 0x11},
	{0x1D, 0x1E, 0x1F, 0x11},
	{0x20, 0x21, 0x22, 0x11},
	{0x23, 0x24, 0x25, 0x00},
	{0x26, 0x27, 0x28, 0x11},
	{0x29, 0x2A, 0x2B, 0x11},
	{0x7D, 0x7E, 0x7F, 0x00},
	{0x7D, 0x7E, 0x7F, 0x00}, // password screen
}

// BitmapSink receives background bitmaps unpacked into a video slot.
type BitmapSink interface {
	CopyBitmap(src []byte)
}

// ResourceManager owns the arena and the directory of resources.
type ResourceManager struct {
	arena []byte
	list  []archive.Descriptor
	banks *archive.BankReader
	video BitmapSink
	log   *slog.Logger

	currentPart   uint16
	requestedPart uint16

	scriptBak int // forward cursor right after the current part loaded
	scriptCur int
	vidBak    int // start of the video slots
	vidCur    int // slot holding the last unpacked bitmap
	nextSlot  int

	useSegVideo2 bool
	segPalette   int
	segBytecode  int
	segCinematic int
	segVideo2    int
}

// NewResourceManager reads the directory of the data set in fsys.
func NewResourceManager(fsys fs.FS, video BitmapSink, log *slog.Logger) (*ResourceManager, error) {
	list, err := archive.ReadDirectory(fsys)
	if err != nil {
		code := ErrBankRead
		if errors.Is(err, archive.ErrNoDirectory) {
			code = ErrMissingDirectory
		}
		return nil, &EngineError{Op: "read directory", Code: code, Detail: archive.DirectoryFile, Err: err}
	}
	rm := &ResourceManager{
		arena: make([]byte, arenaSize),
		list:  list,
		banks: archive.NewBankReader(fsys),
		video: video,
		log:   log,
	}
	rm.vidBak = arenaSize - videoSlots*videoSlotSize
	rm.vidCur = rm.vidBak
	log.Info("resource directory loaded",
		"entries", len(list),
		"arena", humanize.IBytes(uint64(arenaSize)))
	return rm, nil
}

// Arena exposes the backing buffer to the interpreter and renderer.
func (rm *ResourceManager) Arena() []byte {
	return rm.arena
}

func (rm *ResourceManager) CurrentPart() uint16 {
	return rm.currentPart
}

// Descriptor returns entry i of the directory, or nil when out of range.
func (rm *ResourceManager) Descriptor(i int) *archive.Descriptor {
	if i < 0 || i >= len(rm.list) {
		return nil
	}
	return &rm.list[i]
}

// loadedData returns the arena slice of a loaded resource of the given kind.
func (rm *ResourceManager) loadedData(i int, kind archive.Kind) ([]byte, int, bool) {
	d := rm.Descriptor(i)
	if d == nil || d.State != archive.StateLoaded || d.Kind != kind {
		return nil, 0, false
	}
	return rm.arena[d.Offset : d.Offset+int(d.UnpackedSize)], d.Offset, true
}

// TakeRequestedPart returns and clears a pending part switch.
func (rm *ResourceManager) TakeRequestedPart() uint16 {
	p := rm.requestedPart
	rm.requestedPart = 0
	return p
}

func (rm *ResourceManager) invalidateAll() {
	for i := range rm.list {
		rm.list[i].State = archive.StateNotNeeded
	}
	rm.scriptCur = 0
}

// invalidateRequestedKinds releases sounds, music, bitmaps and unknown kinds
// and drops everything loaded after the current part.
func (rm *ResourceManager) invalidateRequestedKinds() {
	for i := range rm.list {
		d := &rm.list[i]
		if d.Kind <= archive.KindPolygonAnimation || d.Kind > archive.KindPolygonShapes {
			d.State = archive.StateNotNeeded
		}
	}
	rm.scriptCur = rm.scriptBak
}

// setupPart switches to part id, reloading its resource set.
func (rm *ResourceManager) setupPart(id uint16) error {
	if id == rm.currentPart {
		return nil
	}
	if id < partFirst || id > partLast {
		return engineErrorf("setup part", ErrInvalidPart, "part %#04x", id)
	}
	p := partTable[id-partFirst]
	need := []uint8{p.palette, p.bytecode, p.cinematic}
	if p.video2 != 0 {
		need = append(need, p.video2)
	}
	for _, i := range need {
		if int(i) >= len(rm.list) {
			return engineErrorf("setup part", ErrOutOfRange, "part %#04x needs resource %d, directory has %d", id, i, len(rm.list))
		}
	}

	rm.invalidateAll()
	for _, i := range need {
		rm.list[i].State = archive.StateLoadMe
	}
	if err := rm.loadMarkedAsNeeded(); err != nil {
		return err
	}
	rm.segPalette = rm.list[p.palette].Offset
	rm.segBytecode = rm.list[p.bytecode].Offset
	rm.segCinematic = rm.list[p.cinematic].Offset
	if p.video2 != 0 {
		rm.segVideo2 = rm.list[p.video2].Offset
	}
	rm.currentPart = id
	rm.scriptBak = rm.scriptCur
	rm.log.Info("part loaded",
		"part", fmt.Sprintf("%#04x", id),
		"used", humanize.IBytes(uint64(rm.scriptCur)),
		"free", humanize.IBytes(uint64(rm.vidBak-rm.scriptCur)))
	return nil
}

// loadSingleOrRequestPart loads resource id, or records id as a part switch
// for the next frame when it is past the end of the directory.
func (rm *ResourceManager) loadSingleOrRequestPart(id uint16) error {
	if int(id) >= len(rm.list) {
		rm.requestedPart = id
		return nil
	}
	d := &rm.list[id]
	if d.State == archive.StateNotNeeded {
		d.State = archive.StateLoadMe
		return rm.loadMarkedAsNeeded()
	}
	return nil
}

// pickNext returns the LoadMe entry with the highest rank, the first one
// found on ties, or -1.
func (rm *ResourceManager) pickNext() int {
	best := -1
	for i := range rm.list {
		d := &rm.list[i]
		if d.State != archive.StateLoadMe {
			continue
		}
		if best < 0 || d.Rank > rm.list[best].Rank {
			best = i
		}
	}
	return best
}

func (rm *ResourceManager) loadMarkedAsNeeded() error {
	for {
		i := rm.pickNext()
		if i < 0 {
			return nil
		}
		d := &rm.list[i]
		size := int(d.UnpackedSize)

		if d.Kind == archive.KindPolygonAnimation {
			if size > videoSlotSize {
				rm.log.Warn("bitmap does not fit a video slot", "resource", i, "size", size)
				d.State = archive.StateNotNeeded
				continue
			}
		} else if size > rm.vidBak-rm.scriptCur {
			rm.log.Warn("not enough memory",
				"resource", i,
				"kind", d.Kind,
				"size", humanize.IBytes(uint64(size)),
				"free", humanize.IBytes(uint64(rm.vidBak-rm.scriptCur)))
			d.State = archive.StateNotNeeded
			continue
		}
		if d.BankID == 0 {
			rm.log.Warn("resource has no bank", "resource", i, "kind", d.Kind)
			d.State = archive.StateNotNeeded
			continue
		}

		if d.Kind == archive.KindPolygonAnimation {
			slot := rm.vidBak + rm.nextSlot*videoSlotSize
			dst := rm.arena[slot : slot+size]
			if err := rm.readResource(i, dst); err != nil {
				return err
			}
			rm.vidCur = slot
			rm.nextSlot = (rm.nextSlot + 1) % videoSlots
			if rm.video != nil {
				rm.video.CopyBitmap(dst)
			}
			d.State = archive.StateNotNeeded
			continue
		}

		if err := rm.readResource(i, rm.arena[rm.scriptCur:rm.scriptCur+size]); err != nil {
			return err
		}
		d.Offset = rm.scriptCur
		d.State = archive.StateLoaded
		rm.scriptCur += size
		rm.log.Debug("resource loaded",
			"resource", i,
			"kind", d.Kind,
			"bank", archive.BankName(d.BankID),
			"size", humanize.IBytes(uint64(size)))
	}
}

func (rm *ResourceManager) readResource(i int, dst []byte) error {
	d := &rm.list[i]
	if err := rm.banks.Read(d, dst); err != nil {
		return &EngineError{
			Op:     "load resource",
			Code:   ErrBankRead,
			Detail: fmt.Sprintf("resource %d (%s) from %s", i, d.Kind, archive.BankName(d.BankID)),
			Err:    err,
		}
	}
	return nil
}

// resourceState is the saved form of the manager. Offsets are arena
// relative.
type resourceState struct {
	loaded       [maxSavedResources]uint8
	part         uint16
	scriptBak    uint32
	scriptCur    uint32
	vidBak       uint32
	vidCur       uint32
	useSegVideo2 bool
	segPalette   uint32
	segBytecode  uint32
	segCinematic uint32
	segVideo2    uint32
}

// captureState lists the resources stacked contiguously from the start of
// the arena. Index 0 terminates the list, so resource 0 is never recorded.
func (rm *ResourceManager) captureState() resourceState {
	st := resourceState{
		part:         rm.currentPart,
		scriptBak:    uint32(rm.scriptBak),
		scriptCur:    uint32(rm.scriptCur),
		vidBak:       uint32(rm.vidBak),
		vidCur:       uint32(rm.vidCur),
		useSegVideo2: rm.useSegVideo2,
		segPalette:   uint32(rm.segPalette),
		segBytecode:  uint32(rm.segBytecode),
		segCinematic: uint32(rm.segCinematic),
		segVideo2:    uint32(rm.segVideo2),
	}
	n, pos := 0, 0
	for n < maxSavedResources {
		found := -1
		for i := range rm.list {
			d := &rm.list[i]
			if d.State == archive.StateLoaded && d.Offset == pos && d.UnpackedSize > 0 {
				found = i
			}
		}
		if found <= 0 || found > 0xFF {
			break
		}
		st.loaded[n] = uint8(found)
		n++
		pos += int(rm.list[found].UnpackedSize)
	}
	return st
}

// restoreState reloads the saved resource list. Nothing changes unless every
// resource reads back and fits.
func (rm *ResourceManager) restoreState(st resourceState) error {
	staged, err := rm.stageState(st)
	if err != nil {
		return err
	}
	rm.commitState(staged)
	return nil
}

// stagedState is a validated resource state with its data read back, ready
// to be copied into the arena.
type stagedState struct {
	st   resourceState
	data []byte
}

// stageState validates st and reads its resources into a scratch buffer. The
// arena and the resource list are not touched.
func (rm *ResourceManager) stageState(st resourceState) (*stagedState, error) {
	var total int
	for _, idx := range st.loaded {
		if idx == 0 {
			break
		}
		if int(idx) >= len(rm.list) {
			return nil, fmt.Errorf("saved resource %d not in directory", idx)
		}
		total += int(rm.list[idx].UnpackedSize)
	}
	if total > rm.vidBak {
		return nil, fmt.Errorf("saved resources need %s, arena holds %s",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(rm.vidBak)))
	}
	for _, v := range []uint32{st.scriptBak, st.scriptCur, st.segPalette, st.segBytecode, st.segCinematic, st.segVideo2} {
		if int(v) > rm.vidBak {
			return nil, fmt.Errorf("saved offset %#x outside the resource area", v)
		}
	}
	if int(st.vidBak) != rm.vidBak || int(st.vidCur) < rm.vidBak || int(st.vidCur) >= arenaSize {
		return nil, fmt.Errorf("saved video offsets %#x/%#x do not match the arena layout", st.vidBak, st.vidCur)
	}

	tmp := make([]byte, total)
	pos := 0
	for _, idx := range st.loaded {
		if idx == 0 {
			break
		}
		d := &rm.list[idx]
		size := int(d.UnpackedSize)
		if err := rm.banks.Read(d, tmp[pos:pos+size]); err != nil {
			return nil, fmt.Errorf("reloading resource %d: %w", idx, err)
		}
		pos += size
	}
	return &stagedState{st: st, data: tmp}, nil
}

// commitState installs a staged state. Audio must be stopped first, since
// the mixer and the music player read samples out of the arena.
func (rm *ResourceManager) commitState(staged *stagedState) {
	st := staged.st
	for i := range rm.list {
		rm.list[i].State = archive.StateNotNeeded
	}
	copy(rm.arena, staged.data)
	pos := 0
	for _, idx := range st.loaded {
		if idx == 0 {
			break
		}
		d := &rm.list[idx]
		d.State = archive.StateLoaded
		d.Offset = pos
		pos += int(d.UnpackedSize)
	}
	rm.currentPart = st.part
	rm.requestedPart = 0
	rm.scriptBak = int(st.scriptBak)
	rm.scriptCur = int(st.scriptCur)
	rm.vidCur = int(st.vidCur)
	rm.nextSlot = ((rm.vidCur-rm.vidBak)/videoSlotSize + 1) % videoSlots
	rm.useSegVideo2 = st.useSegVideo2
	rm.segPalette = int(st.segPalette)
	rm.segBytecode = int(st.segBytecode)
	rm.segCinematic = int(st.segCinematic)
	rm.segVideo2 = int(st.segVideo2)
}
