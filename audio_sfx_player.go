// audio_sfx_player.go - Four track module player feeding the mixer

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

/*
Module layout, all words big-endian:

	0x00  delay
	0x02  15 instruments of (resource, volume)
	0x3E  order count
	0x40  order table, 0x80 bytes
	0xC0  patterns, 1024 bytes each: 64 rows of 4 channels of (note1, note2)

note2 bits 12-15 select the instrument. note1 is an Amiga period, or one of
the commands patternMark and patternStop.
*/

package main

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/intuitionamiga/PolygonEngine/archive"
)

const (
	sfxInstruments   = 15
	sfxOrderCount    = 0x3E
	sfxOrderTable    = 0x40
	sfxOrderTableLen = 0x80
	sfxPatternData   = 0xC0
	sfxPatternSize   = 1024
	sfxRowSize       = 16

	patternMark = 0xFFFD
	patternStop = 0xFFFE

	amigaPaulaClock = 7159092
	markPending     = 1 << 16
)

type sfxInstrument struct {
	data   int // arena offset of the sample resource
	volume uint16
	loaded bool
}

type sfxModule struct {
	data       int // arena offset of the module resource
	curPos     uint16
	curOrder   uint8
	numOrder   uint8
	orderTable [sfxOrderTableLen]uint8
	samples    [sfxInstruments]sfxInstrument
}

// SfxPlayer steps through the pattern rows of a music module from a timer
// callback. The interpreter starts and stops it; row events go to the mixer.
type SfxPlayer struct {
	mu     sync.Mutex
	mixer  *Mixer
	timers Timers
	res    *ResourceManager
	log    *slog.Logger

	delay   uint16
	resNum  uint16
	timer   TimerID
	gen     uint32 // bumped on every start, stale callbacks compare against it
	playing bool
	mod     sfxModule

	// Low 16 bits hold the last mark, markPending is set until the
	// interpreter takes it.
	mark atomic.Uint32
}

func NewSfxPlayer(mixer *Mixer, timers Timers, res *ResourceManager, log *slog.Logger) *SfxPlayer {
	return &SfxPlayer{mixer: mixer, timers: timers, res: res, log: log}
}

// TakeMark returns the last pattern mark once.
func (p *SfxPlayer) TakeMark() (int16, bool) {
	v := p.mark.Swap(0)
	if v&markPending == 0 {
		return 0, false
	}
	return int16(uint16(v)), true
}

func (p *SfxPlayer) moduleWord(off int) uint16 {
	w, _ := readBE16(p.res.Arena(), p.mod.data+off)
	return w
}

// PlayMusic starts module resNum at order pos, changes the tempo of the
// current module, or stops playback when both are zero.
func (p *SfxPlayer) PlayMusic(resNum, delay uint16, pos uint8) {
	switch {
	case resNum != 0:
		p.loadModule(resNum, delay, pos)
		p.Start()
	case delay != 0:
		p.SetEventsDelay(delay)
	default:
		p.Stop()
	}
}

func (p *SfxPlayer) loadModule(resNum, delay uint16, pos uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadModuleLocked(resNum, delay, pos)
}

func (p *SfxPlayer) loadModuleLocked(resNum, delay uint16, pos uint8) {
	data, off, ok := p.res.loadedData(int(resNum), archive.KindMusic)
	if !ok {
		p.log.Warn("music module not loaded", "resource", resNum)
		return
	}
	if len(data) < sfxPatternData {
		p.log.Warn("music module too short", "resource", resNum, "size", len(data))
		return
	}
	p.resNum = resNum
	p.mod = sfxModule{data: off, curOrder: pos}
	p.mod.numOrder = uint8(p.moduleWord(sfxOrderCount))
	copy(p.mod.orderTable[:], data[sfxOrderTable:])
	if delay == 0 {
		delay = p.moduleWord(0)
	}
	p.delay = uint16(uint32(delay) * 60 / 7050)
	p.prepareInstruments()
}

func (p *SfxPlayer) prepareInstruments() {
	for i := range p.mod.samples {
		ins := &p.mod.samples[i]
		*ins = sfxInstrument{}
		resNum := p.moduleWord(2 + i*4)
		if resNum == 0 {
			continue
		}
		ins.volume = p.moduleWord(4 + i*4)
		d := p.res.Descriptor(int(resNum))
		if d == nil || d.State != archive.StateLoaded {
			p.log.Warn("instrument sample not loaded", "instrument", i, "resource", resNum)
			continue
		}
		ins.data = d.Offset
		ins.loaded = true
	}
}

func (p *SfxPlayer) SetEventsDelay(delay uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = uint16(uint32(delay) * 60 / 7050)
}

// Start arms the row timer for the loaded module.
func (p *SfxPlayer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startLocked()
}

func (p *SfxPlayer) startLocked() {
	if p.resNum == 0 {
		return
	}
	if p.playing {
		p.timers.RemoveTimer(p.timer)
	}
	p.mod.curPos = 0
	p.playing = true
	p.gen++
	gen := p.gen
	p.timer = p.timers.AddTimer(uint32(p.delay), func() uint32 { return p.tick(gen) })
}

func (p *SfxPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *SfxPlayer) stopLocked() {
	if p.playing {
		p.timers.RemoveTimer(p.timer)
		p.playing = false
	}
	p.resNum = 0
}

// Playing reports whether a module is running.
func (p *SfxPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *SfxPlayer) tick(gen uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || gen != p.gen {
		return 0
	}
	p.handleEvents()
	if !p.playing {
		return 0
	}
	return uint32(p.delay)
}

// handleEvents plays one row of the current pattern and advances the
// order when the pattern ends.
func (p *SfxPlayer) handleEvents() {
	order := int(p.mod.orderTable[p.mod.curOrder&(sfxOrderTableLen-1)])
	row := sfxPatternData + int(p.mod.curPos) + order*sfxPatternSize
	for ch := range mixerChannels {
		p.handlePattern(ch, row+ch*4)
	}
	p.mod.curPos += sfxRowSize
	if p.mod.curPos < sfxPatternSize {
		return
	}
	p.mod.curPos = 0
	p.mod.curOrder++
	if p.mod.curOrder >= p.mod.numOrder {
		p.stopLocked()
		p.mixer.StopAll()
	}
}

func (p *SfxPlayer) handlePattern(channel, off int) {
	note1 := p.moduleWord(off)
	note2 := p.moduleWord(off + 2)
	if note1 == patternMark {
		p.mark.Store(markPending | uint32(note2))
		return
	}

	// Effects 5 and 6 raise or lower the instrument volume for this note.
	var ins *sfxInstrument
	var vol int
	if sample := int(note2 >> 12); sample != 0 && p.mod.samples[sample-1].loaded {
		ins = &p.mod.samples[sample-1]
		vol = int(ins.volume)
		switch note2 >> 8 & 0x0F {
		case 5:
			vol += int(note2 & 0xFF)
		case 6:
			vol -= int(note2 & 0xFF)
		}
		vol = max(0, min(vol, maxVolume))
		p.mixer.SetChannelVolume(channel, uint8(vol))
	}

	switch {
	case note1 == 0:
	case note1 == patternStop:
		p.mixer.StopChannel(channel)
	case ins != nil:
		mem := p.res.Arena()
		length, _ := readBE16(mem, ins.data)
		loopLen, _ := readBE16(mem, ins.data+2)
		chunk := MixerChunk{mem: mem, data: ins.data + soundHeaderLen, len: length * 2}
		if loopLen != 0 {
			chunk.loopPos = chunk.len
			chunk.loopLen = loopLen * 2
		}
		freq := uint16(amigaPaulaClock / (int(note1) * 2))
		p.mixer.PlayChannel(channel, chunk, freq, uint8(vol))
	}
}

// playerState is the saved form of the player.
type playerState struct {
	delay    uint16
	resNum   uint16
	curPos   uint16
	curOrder uint8
}

func (p *SfxPlayer) captureState() playerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return playerState{
		delay:    p.delay,
		resNum:   p.resNum,
		curPos:   p.mod.curPos,
		curOrder: p.mod.curOrder,
	}
}

// restoreState reloads the saved module from the arena and resumes at the
// saved row. The resource manager must already be restored.
func (p *SfxPlayer) restoreState(st playerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if st.resNum == 0 {
		return
	}
	p.loadModuleLocked(st.resNum, 0, st.curOrder)
	if p.resNum == 0 {
		return
	}
	p.delay = st.delay
	p.startLocked()
	p.mod.curPos = st.curPos
}
