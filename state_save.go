// state_save.go - Save slots in the AWSV format

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

const (
	saveMagic   = "AWSV"
	saveVersion = 2
	saveDescLen = 32
	maxSaveSlot = 99
)

func saveFileName(name string, slot int) string {
	return fmt.Sprintf("%s.s%02d", name, slot)
}

func encodeState(w io.Writer, st *engineState) error {
	var hdr [8]byte
	copy(hdr[:4], saveMagic)
	binary.BigEndian.PutUint16(hdr[4:], saveVersion)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(st.desc[:]); err != nil {
		return fmt.Errorf("writing description: %w", err)
	}
	return writeStateFields(w, st.fields())
}

// decodeState parses a whole save file. Nothing is applied here.
func decodeState(r io.Reader) (*engineState, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if string(hdr[:4]) != saveMagic {
		return nil, fmt.Errorf("invalid save magic: %q", string(hdr[:4]))
	}
	st := &engineState{version: binary.BigEndian.Uint16(hdr[4:])}
	if st.version < 1 || st.version > saveVersion {
		return nil, fmt.Errorf("unsupported save version: %d", st.version)
	}
	if _, err := io.ReadFull(r, st.desc[:]); err != nil {
		return nil, fmt.Errorf("reading description: %w", err)
	}
	if err := readStateFields(r, st.version, st.fields()); err != nil {
		return nil, err
	}
	return st, nil
}

func (e *Engine) captureState(desc string) *engineState {
	st := &engineState{
		version: saveVersion,
		vm:      e.vm.captureState(),
		res:     e.res.captureState(),
		video:   *e.video.captureState(),
		player:  e.player.captureState(),
		mixer:   e.mixer.captureState(),
	}
	st.setDescription(desc)
	return st
}

// applyState installs a decoded state. Resources are read back before
// anything changes, so a failure leaves the game as it was. Audio stops
// before the arena is overwritten.
func (e *Engine) applyState(st *engineState) error {
	staged, err := e.res.stageState(st.res)
	if err != nil {
		return err
	}
	e.player.Stop()
	e.mixer.StopAll()
	e.res.commitState(staged)
	e.vm.restoreState(st.vm)
	e.video.restoreState(&st.video)
	e.mixer.restoreState(st.mixer, e.res.Arena())
	e.player.restoreState(st.player)
	return nil
}

func (e *Engine) slotPath(slot int) string {
	return filepath.Join(e.opts.SaveDir, saveFileName(e.opts.SaveName, slot))
}

// SaveState writes the current state to slot.
func (e *Engine) SaveState(slot int, desc string) error {
	if slot < 0 || slot > maxSaveSlot {
		return fmt.Errorf("save slot %d out of range", slot)
	}
	var buf bytes.Buffer
	if err := encodeState(&buf, e.captureState(desc)); err != nil {
		return err
	}
	path := e.slotPath(slot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create save directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	e.log.Info("state saved", "slot", slot, "file", path, "size", humanize.Bytes(uint64(buf.Len())))
	return nil
}

// LoadState restores slot. The file is parsed completely before anything is
// applied, so a bad file leaves the running game untouched.
func (e *Engine) LoadState(slot int) error {
	if slot < 0 || slot > maxSaveSlot {
		return fmt.Errorf("save slot %d out of range", slot)
	}
	path := e.slotPath(slot)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	defer f.Close()
	st, err := decodeState(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := e.applyState(st); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.log.Info("state loaded", "slot", slot, "file", path, "description", st.description(), "version", st.version)
	return nil
}
