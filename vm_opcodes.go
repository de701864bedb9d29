// vm_opcodes.go - Opcodes 0x00-0x1A of the interpreter

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"time"

	"github.com/intuitionamiga/PolygonEngine/archive"
)

var opcodeTable = [...]func(*VM){
	0x00: (*VM).opMovConst,
	0x01: (*VM).opMov,
	0x02: (*VM).opAdd,
	0x03: (*VM).opAddConst,
	0x04: (*VM).opCall,
	0x05: (*VM).opRet,
	0x06: (*VM).opPauseThread,
	0x07: (*VM).opJmp,
	0x08: (*VM).opSetVect,
	0x09: (*VM).opJnz,
	0x0A: (*VM).opCondJmp,
	0x0B: (*VM).opSetPalette,
	0x0C: (*VM).opChangeTasksState,
	0x0D: (*VM).opSelectPage,
	0x0E: (*VM).opFillPage,
	0x0F: (*VM).opCopyPage,
	0x10: (*VM).opBlitFramebuffer,
	0x11: (*VM).opKillThread,
	0x12: (*VM).opDrawString,
	0x13: (*VM).opSub,
	0x14: (*VM).opAnd,
	0x15: (*VM).opOr,
	0x16: (*VM).opShl,
	0x17: (*VM).opShr,
	0x18: (*VM).opPlaySound,
	0x19: (*VM).opUpdateResources,
	0x1A: (*VM).opPlayMusic,
}

func (v *VM) opMovConst() {
	i := v.script.fetchByte()
	n := int16(v.script.fetchWord())
	v.vars[i] = n
}

func (v *VM) opMov() {
	dst := v.script.fetchByte()
	src := v.script.fetchByte()
	v.vars[dst] = v.vars[src]
}

func (v *VM) opAdd() {
	dst := v.script.fetchByte()
	src := v.script.fetchByte()
	v.vars[dst] += v.vars[src]
}

func (v *VM) opAddConst() {
	i := v.script.fetchByte()
	n := int16(v.script.fetchWord())
	v.vars[i] += n
}

func (v *VM) opCall() {
	off := v.script.fetchWord()
	if v.sp >= stackDepth-1 {
		v.err = engineErrorf("call", ErrStackOverflow, "call to %#04x with %d frames", off, v.sp)
		return
	}
	v.stack[v.sp] = uint16(v.script.offset())
	v.sp++
	v.script.seek(int(off))
}

func (v *VM) opRet() {
	if v.sp == 0 {
		v.err = engineErrorf("ret", ErrStackUnderflow, "return with an empty stack")
		return
	}
	v.sp--
	v.script.seek(int(v.stack[v.sp]))
}

func (v *VM) opPauseThread() {
	v.gotoNextThread = true
}

func (v *VM) opJmp() {
	off := v.script.fetchWord()
	v.script.seek(int(off))
}

// opSetVect stages a new program counter for a thread; it takes effect at
// the next frame.
func (v *VM) opSetVect() {
	id := v.script.fetchByte()
	off := v.script.fetchWord()
	if int(id) >= numThreads {
		v.warnf("setVect on thread %d", id)
		return
	}
	v.threads[slotRequested][id] = off
}

func (v *VM) opJnz() {
	i := v.script.fetchByte()
	v.vars[i]--
	if v.vars[i] != 0 {
		v.opJmp()
	} else {
		v.script.fetchWord()
	}
}

func (v *VM) opCondJmp() {
	op := v.script.fetchByte()
	b := v.vars[v.script.fetchByte()]
	var a int16
	switch {
	case op&0x80 != 0:
		a = v.vars[v.script.fetchByte()]
	case op&0x40 != 0:
		a = int16(v.script.fetchWord())
	default:
		a = int16(v.script.fetchByte())
	}

	var taken bool
	switch op & 7 {
	case 0:
		taken = b == a
	case 1:
		taken = b != a
	case 2:
		taken = b > a
	case 3:
		taken = b >= a
	case 4:
		taken = b < a
	case 5:
		taken = b <= a
	default:
		v.warnf("condJmp: unknown comparison %d", op&7)
	}
	if taken {
		v.opJmp()
	} else {
		v.script.fetchWord()
	}
}

func (v *VM) opSetPalette() {
	n := v.script.fetchWord()
	v.video.setPaletteRequest(uint8(n >> 8))
}

// opChangeTasksState stages a suspend, resume or kill for a range of
// threads.
func (v *VM) opChangeTasksState() {
	first := v.script.fetchByte()
	last := v.script.fetchByte()
	if last < first {
		v.warnf("changeTasksState: bad range %d-%d", first, last)
		return
	}
	action := v.script.fetchByte()
	last &= numThreads - 1
	switch {
	case action == 2:
		for i := first; i <= last; i++ {
			v.threads[slotRequested][i] = threadKillRequest
		}
	case action < 2:
		for i := first; i <= last; i++ {
			v.suspended[slotRequested][i] = action
		}
	}
}

func (v *VM) opSelectPage() {
	v.video.selectDrawTarget(v.script.fetchByte())
}

func (v *VM) opFillPage() {
	page := v.script.fetchByte()
	color := v.script.fetchByte()
	v.video.fillPage(page, color)
}

func (v *VM) opCopyPage() {
	src := v.script.fetchByte()
	dst := v.script.fetchByte()
	v.video.copyPage(src, dst, v.vars[varScrollY])
}

// opBlitFramebuffer presents a page. Outside fast mode it holds the frame
// for vars[0xFF] slices of 20ms counted from the previous blit.
func (v *VM) opBlitFramebuffer() {
	page := v.script.fetchByte()
	v.handleSpecialKeys()

	if !v.fastMode {
		wait := time.Duration(v.vars[varPauseSlices])*blitSlice - v.clock.Now().Sub(v.lastFrame)
		if wait > 0 {
			v.clock.Sleep(wait)
		}
	}
	v.lastFrame = v.clock.Now()

	v.vars[0xF7] = 0
	v.video.updateDisplay(page)
	v.frames++
}

func (v *VM) opKillThread() {
	v.script.seek(threadInactive)
	v.gotoNextThread = true
}

func (v *VM) opDrawString() {
	id := v.script.fetchWord()
	x := v.script.fetchByte()
	y := v.script.fetchByte()
	color := v.script.fetchByte()
	v.video.drawString(color, x, y, id)
}

func (v *VM) opSub() {
	dst := v.script.fetchByte()
	src := v.script.fetchByte()
	v.vars[dst] -= v.vars[src]
}

func (v *VM) opAnd() {
	i := v.script.fetchByte()
	n := v.script.fetchWord()
	v.vars[i] = int16(uint16(v.vars[i]) & n)
}

func (v *VM) opOr() {
	i := v.script.fetchByte()
	n := v.script.fetchWord()
	v.vars[i] = int16(uint16(v.vars[i]) | n)
}

func (v *VM) opShl() {
	i := v.script.fetchByte()
	n := v.script.fetchWord()
	v.vars[i] = int16(uint16(v.vars[i]) << n)
}

func (v *VM) opShr() {
	i := v.script.fetchByte()
	n := v.script.fetchWord()
	v.vars[i] = int16(uint16(v.vars[i]) >> n)
}

func (v *VM) opPlaySound() {
	resNum := v.script.fetchWord()
	freq := v.script.fetchByte()
	vol := v.script.fetchByte()
	channel := v.script.fetchByte()
	v.playSound(resNum, freq, vol, channel)
}

// opUpdateResources loads a resource or requests a part. Zero releases
// sounds, music and bitmaps back to the part baseline.
func (v *VM) opUpdateResources() {
	id := v.script.fetchWord()
	if id == 0 {
		v.player.Stop()
		v.mixer.StopAll()
		v.res.invalidateRequestedKinds()
		return
	}
	if err := v.res.loadSingleOrRequestPart(id); err != nil {
		v.err = err
	}
}

func (v *VM) opPlayMusic() {
	resNum := v.script.fetchWord()
	delay := v.script.fetchWord()
	pos := v.script.fetchByte()
	v.player.PlayMusic(resNum, delay, pos)
}

// frequencyTable maps the sound opcode's frequency index to a sample rate
// in Hz.
var frequencyTable = [40]uint16{
	0x0CFF, 0x0DC3, 0x0E91, 0x0F6F, 0x1056, 0x114E, 0x1259, 0x136C,
	0x149F, 0x15D9, 0x1726, 0x1888, 0x19FD, 0x1B86, 0x1D21, 0x1EDE,
	0x20AB, 0x229C, 0x24B3, 0x26D7, 0x293F, 0x2BB2, 0x2E4C, 0x3110,
	0x33FB, 0x370D, 0x3A43, 0x3DDF, 0x4157, 0x4538, 0x4998, 0x4DAE,
	0x5240, 0x5764, 0x5C9A, 0x61C8, 0x6793, 0x6E19, 0x7485, 0x7BBD,
}

// playSound starts a loaded sound resource on a channel. A zero volume
// stops the channel.
func (v *VM) playSound(resNum uint16, freq, vol, channel uint8) {
	ch := int(channel & (mixerChannels - 1))
	if vol == 0 {
		v.mixer.StopChannel(ch)
		return
	}
	d := v.res.Descriptor(int(resNum))
	if d == nil || d.State != archive.StateLoaded {
		return
	}
	if int(freq) >= len(frequencyTable) {
		v.warnf("playSound: frequency index %d", freq)
		return
	}
	mem := v.res.Arena()
	length, ok1 := readBE16(mem, d.Offset)
	loopLen, ok2 := readBE16(mem, d.Offset+2)
	if !ok1 || !ok2 {
		return
	}
	chunk := MixerChunk{mem: mem, data: d.Offset + soundHeaderLen, len: length * 2}
	if loopLen != 0 {
		chunk.loopPos = chunk.len
		chunk.loopLen = loopLen * 2
	}
	v.mixer.PlayChannel(ch, chunk, frequencyTable[freq], min(vol, maxVolume))
}
