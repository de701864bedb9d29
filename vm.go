// vm.go - Cooperative 64 thread bytecode interpreter

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

/*
Every host frame each live thread runs from its saved program counter until
it yields (pause or kill). Scheduling changes requested by threads are
staged in the requested tables and applied together at the start of the
next frame, so a frame always sees a consistent thread set.
*/

package main

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	numThreads = 64
	numVars    = 256
	stackDepth = 256

	threadInactive    = 0xFFFF
	threadKillRequest = 0xFFFE
	noVectorRequest   = 0xFFFF

	slotCurrent   = 0
	slotRequested = 1

	blitSlice = 20 * time.Millisecond
)

// Well known variables shared with the host.
const (
	varRandomSeed        = 0x3C
	varScreenNum         = 0x67
	varLastKeyChar       = 0xDA
	varHeroPosUpDown     = 0xE5
	varMusicMark         = 0xF4
	varScrollY           = 0xF9
	varHeroAction        = 0xFA
	varHeroPosJumpDown   = 0xFB
	varHeroPosLeftRight  = 0xFC
	varHeroPosMask       = 0xFD
	varHeroActionPosMask = 0xFE
	varPauseSlices       = 0xFF
)

// Clock abstracts wall time so frame pacing can be tested.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// VM is the bytecode interpreter. It is driven from a single goroutine.
type VM struct {
	vars      [numVars]int16
	stack     [stackDepth]uint16
	sp        int
	threads   [2][numThreads]uint16 // program counters, current and requested
	suspended [2][numThreads]uint8

	script         memCursor
	gotoNextThread bool
	fastMode       bool
	lastFrame      time.Time
	err            error
	frames         uint64

	res    *ResourceManager
	video  *Renderer
	mixer  *Mixer
	player *SfxPlayer
	events InputSource
	input  *PlayerInput
	clock  Clock
	log    *slog.Logger
	warn   rate.Sometimes

	// onPart is called after a part has been set up.
	onPart func(part uint16)
}

func NewVM(res *ResourceManager, video *Renderer, mixer *Mixer, player *SfxPlayer, events InputSource, input *PlayerInput, clock Clock, log *slog.Logger) *VM {
	if events == nil {
		events = noInput{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	v := &VM{
		res:    res,
		video:  video,
		mixer:  mixer,
		player: player,
		events: events,
		input:  input,
		clock:  clock,
		log:    log,
		warn:   rate.Sometimes{First: 8, Interval: time.Second},
	}
	v.init()
	return v
}

func (v *VM) warnf(format string, args ...any) {
	v.warn.Do(func() {
		v.log.Warn(fmt.Sprintf(format, args...))
	})
}

// init clears the variables and sets the values the protection screen
// checks for.
func (v *VM) init() {
	v.vars = [numVars]int16{}
	v.vars[0x54] = 0x81
	v.vars[varRandomSeed] = int16(v.clock.Now().UnixNano())
	v.vars[0xBC] = 0x10
	v.vars[0xC6] = 0x80
	v.vars[0xF2] = 4000
	v.vars[0xDC] = 33
	v.lastFrame = v.clock.Now()
}

// Var returns variable i.
func (v *VM) Var(i uint8) int16 {
	return v.vars[i]
}

func (v *VM) SetVar(i uint8, val int16) {
	v.vars[i] = val
}

// Frames returns the number of blits executed.
func (v *VM) Frames() uint64 {
	return v.frames
}

// ThreadPC returns the current program counter of thread id.
func (v *VM) ThreadPC(id int) uint16 {
	return v.threads[slotCurrent][id]
}

// initForPart stops audio, loads part id and leaves only thread 0 running
// from offset 0.
func (v *VM) initForPart(id uint16) error {
	v.player.Stop()
	v.mixer.StopAll()
	v.vars[0xE4] = 0x14
	if err := v.res.setupPart(id); err != nil {
		return err
	}
	for i := range numThreads {
		v.threads[slotCurrent][i] = threadInactive
		v.threads[slotRequested][i] = noVectorRequest
		v.suspended[slotCurrent][i] = 0
		v.suspended[slotRequested][i] = 0
	}
	v.threads[slotCurrent][0] = 0
	v.video.bindArena(v.res.Arena(), v.res.segPalette)
	if v.onPart != nil {
		v.onPart(id)
	}
	return nil
}

// checkThreadRequests applies a pending part switch and the staged vector
// and suspend requests.
func (v *VM) checkThreadRequests() error {
	if p := v.res.TakeRequestedPart(); p != 0 {
		if err := v.initForPart(p); err != nil {
			return err
		}
	}
	for i := range numThreads {
		v.suspended[slotCurrent][i] = v.suspended[slotRequested][i]
		n := v.threads[slotRequested][i]
		if n == noVectorRequest {
			continue
		}
		if n == threadKillRequest {
			n = threadInactive
		}
		v.threads[slotCurrent][i] = n
		v.threads[slotRequested][i] = noVectorRequest
	}
	if mark, ok := v.player.TakeMark(); ok {
		v.vars[varMusicMark] = mark
	}
	return nil
}

// hostFrame runs every live thread once, in ascending order.
func (v *VM) hostFrame() error {
	for id := range numThreads {
		if v.suspended[slotCurrent][id] != 0 {
			continue
		}
		pc := v.threads[slotCurrent][id]
		if pc == threadInactive {
			continue
		}
		v.script.reset(v.res.Arena(), v.res.segBytecode, int(pc))
		v.sp = 0
		v.gotoNextThread = false
		if err := v.executeThread(); err != nil {
			return fmt.Errorf("thread %d at %#04x: %w", id, pc, err)
		}
		v.threads[slotCurrent][id] = uint16(v.script.offset())
		if v.input.Quit {
			break
		}
	}
	return nil
}

func (v *VM) executeThread() error {
	for !v.gotoNextThread {
		at := v.script.offset()
		op := v.script.fetchByte()
		if v.script.err != nil {
			return v.script.err
		}
		switch {
		case op&0x80 != 0:
			v.drawCinematicPolygon(op)
		case op&0x40 != 0:
			v.drawPolygon(op)
		case int(op) < len(opcodeTable):
			opcodeTable[op](v)
		default:
			return engineErrorf("execute", ErrUnknownOpcode, "opcode %#02x at %#04x", op, at)
		}
		if v.script.err != nil {
			return v.script.err
		}
		if v.err != nil {
			err := v.err
			v.err = nil
			return err
		}
	}
	return nil
}

// drawCinematicPolygon handles opcodes 0x80-0xFF: the shape offset is the
// opcode and the next byte, the position follows as two bytes.
func (v *VM) drawCinematicPolygon(op uint8) {
	off := (uint16(op)<<8 | uint16(v.script.fetchByte())) * 2
	v.res.useSegVideo2 = false
	x := int16(v.script.fetchByte())
	y := int16(v.script.fetchByte())
	if v.script.err != nil {
		return
	}
	if h := y - 199; h > 0 {
		y = 199
		x += h
	}
	v.video.setDataBuffer(v.res.segCinematic, int(off))
	v.video.readAndDrawPolygon(0xFF, defaultZoom, point{x, y})
}

// drawPolygon handles opcodes 0x40-0x7F. Bits 5-4, 3-2 and 1-0 select how
// x, y and the zoom are encoded.
func (v *VM) drawPolygon(op uint8) {
	off := v.script.fetchWord() * 2
	x := int16(v.script.fetchByte())
	v.res.useSegVideo2 = false

	if op&0x20 == 0 {
		if op&0x10 == 0 {
			x = x<<8 | int16(v.script.fetchByte())
		} else {
			x = v.vars[uint8(x)]
		}
	} else if op&0x10 != 0 {
		x += 0x100
	}

	y := int16(v.script.fetchByte())
	if op&0x08 == 0 {
		if op&0x04 == 0 {
			y = y<<8 | int16(v.script.fetchByte())
		} else {
			y = v.vars[uint8(y)]
		}
	}

	zoom := uint16(v.script.fetchByte())
	if op&0x02 == 0 {
		if op&0x01 == 0 {
			v.script.skip(-1)
			zoom = defaultZoom
		} else {
			zoom = uint16(v.vars[uint8(zoom)])
		}
	} else if op&0x01 != 0 {
		v.res.useSegVideo2 = true
		v.script.skip(-1)
		zoom = defaultZoom
	}
	if v.script.err != nil {
		return
	}

	seg := v.res.segCinematic
	if v.res.useSegVideo2 {
		seg = v.res.segVideo2
	}
	v.video.setDataBuffer(seg, int(off))
	v.video.readAndDrawPolygon(0xFF, zoom, point{x, y})
}

// vmState is the saved form of the interpreter.
type vmState struct {
	vars      [numVars]int16
	stack     [stackDepth]uint16
	threads   [2][numThreads]uint16
	suspended [2][numThreads]uint8
}

func (v *VM) captureState() vmState {
	return vmState{
		vars:      v.vars,
		stack:     v.stack,
		threads:   v.threads,
		suspended: v.suspended,
	}
}

func (v *VM) restoreState(st vmState) {
	v.vars = st.vars
	v.stack = st.stack
	v.threads = st.threads
	v.suspended = st.suspended
	v.sp = 0
	v.err = nil
	v.video.bindArena(v.res.Arena(), v.res.segPalette)
}
