// state_serializer.go - Versioned field lists for the save state format

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"fmt"
	"io"
)

// stateField is one big-endian value of a save file. ptr points at a fixed
// size value (bool, integer or array of them). Fields newer than the file
// being read are skipped and keep their zero value.
type stateField struct {
	since uint16
	name  string
	ptr   any
}

func writeStateFields(w io.Writer, fields []stateField) error {
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f.ptr); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
	}
	return nil
}

func readStateFields(r io.Reader, version uint16, fields []stateField) error {
	for _, f := range fields {
		if version < f.since {
			continue
		}
		if err := binary.Read(r, binary.BigEndian, f.ptr); err != nil {
			return fmt.Errorf("reading %s: %w", f.name, err)
		}
	}
	return nil
}

// engineState is a decoded save file.
type engineState struct {
	version uint16
	desc    [saveDescLen]byte
	vm      vmState
	res     resourceState
	video   videoState
	player  playerState
	mixer   [mixerChannels]mixerChannelState
}

func (st *engineState) description() string {
	n := 0
	for n < len(st.desc) && st.desc[n] != 0 {
		n++
	}
	return string(st.desc[:n])
}

func (st *engineState) setDescription(s string) {
	st.desc = [saveDescLen]byte{}
	copy(st.desc[:len(st.desc)-1], s)
}

// fields lists the body of the file in order: interpreter, resources,
// video, then the audio state added in version 2.
func (st *engineState) fields() []stateField {
	f := []stateField{
		{1, "variables", &st.vm.vars},
		{1, "call stack", &st.vm.stack},
		{1, "thread vectors", &st.vm.threads},
		{1, "thread suspend flags", &st.vm.suspended},

		{1, "loaded resources", &st.res.loaded},
		{1, "current part", &st.res.part},
		{1, "script baseline", &st.res.scriptBak},
		{1, "script cursor", &st.res.scriptCur},
		{1, "video base", &st.res.vidBak},
		{1, "video cursor", &st.res.vidCur},
		{1, "second shape segment flag", &st.res.useSegVideo2},
		{1, "palette segment", &st.res.segPalette},
		{1, "bytecode segment", &st.res.segBytecode},
		{1, "cinematic segment", &st.res.segCinematic},
		{1, "shape segment", &st.res.segVideo2},

		{1, "current palette", &st.video.currentPalette},
		{1, "requested palette", &st.video.requestedPalette},
		{1, "page aliases", &st.video.mask},
		{1, "pages", &st.video.pages},

		{2, "music delay", &st.player.delay},
		{2, "music resource", &st.player.resNum},
		{2, "music row", &st.player.curPos},
		{2, "music order", &st.player.curOrder},
	}
	for i := range st.mixer {
		ch := &st.mixer[i]
		f = append(f,
			stateField{2, "channel active", &ch.active},
			stateField{2, "channel volume", &ch.volume},
			stateField{2, "channel position", &ch.pos},
			stateField{2, "channel step", &ch.inc},
			stateField{2, "channel data", &ch.data},
			stateField{2, "channel length", &ch.len},
			stateField{2, "channel loop start", &ch.loopPos},
			stateField{2, "channel loop length", &ch.loopLen},
		)
	}
	return f
}
