// terminal_host.go - Raw terminal keyboard as a player input source

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"sync"
	"time"

	"golang.org/x/term"
)

// A terminal only reports key presses, so a direction or the button stays
// held for keyHold after each press. Terminal auto-repeat keeps it held.
const keyHold = 150 * time.Millisecond

// TerminalHost reads raw stdin and turns key presses into PlayerInput.
// Arrows move, space or enter is the button, c jumps to the password
// screen, p pauses, ctrl-s/ctrl-l save and load, ctrl-f toggles fast
// mode, + and - change the save slot, Q or ctrl-c quits.
type TerminalHost struct {
	mu       sync.Mutex
	pending  PlayerInput
	dirUntil [4]time.Time
	button   time.Time
	esc      int // bytes of an escape sequence seen so far
	now      func() time.Time

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

func NewTerminalHost() *TerminalHost {
	return &TerminalHost{
		now:    time.Now,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (h *TerminalHost) ProcessEvents(in *PlayerInput) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	in.DirMask = 0
	for i, until := range h.dirUntil {
		if now.Before(until) {
			in.DirMask |= 1 << i
		}
	}
	in.Button = now.Before(h.button)
	mergeOneShots(in, &h.pending)
	h.pending = PlayerInput{}
}

func (h *TerminalHost) holdDir(bit uint8) {
	for i := range h.dirUntil {
		if bit == 1<<i {
			h.dirUntil[i] = h.now().Add(keyHold)
		}
	}
}

// routeKey decodes one byte of terminal input.
func (h *TerminalHost) routeKey(b byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.esc {
	case 1:
		if b == '[' || b == 'O' {
			h.esc = 2
			return
		}
		h.esc = 0
	case 2:
		h.esc = 0
		switch b {
		case 'A':
			h.holdDir(DirUp)
		case 'B':
			h.holdDir(DirDown)
		case 'C':
			h.holdDir(DirRight)
		case 'D':
			h.holdDir(DirLeft)
		}
		return
	}

	switch {
	case b == 0x1B:
		h.esc = 1
	case b == ' ' || b == '\r' || b == '\n':
		h.button = h.now().Add(keyHold)
	case b == 0x7F || b == 0x08:
		h.pending.LastChar = 8
	case b == 0x03 || b == 'Q':
		h.pending.Quit = true
	case b == 0x13:
		h.pending.Save = true
	case b == 0x0C:
		h.pending.Load = true
	case b == 0x06:
		h.pending.FastMode = true
	case b == '+':
		h.pending.StateSlot = 1
	case b == '-':
		h.pending.StateSlot = -1
	case b >= 'a' && b <= 'z':
		h.pending.LastChar = b
		switch b {
		case 'c':
			h.pending.Code = true
		case 'p':
			h.pending.Pause = true
		}
	}
}

// Stop terminates the reading goroutine and restores the terminal.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	h.restore()
}
