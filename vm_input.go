// vm_input.go - Player input mapped onto interpreter variables

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import "time"

const pausePoll = 200 * time.Millisecond

// updatePlayer polls the input source and publishes the held directions,
// the action button and typed characters to the scripts.
func (v *VM) updatePlayer() {
	in := v.input
	v.events.ProcessEvents(in)

	if v.res.CurrentPart() == partPassword {
		c := in.LastChar
		if c == 8 || c == 0 || (c >= 'a' && c <= 'z') {
			v.vars[varLastKeyChar] = int16(c &^ 0x20)
			in.LastChar = 0
		}
	}

	var lr, ud int16
	var m int16
	if in.DirMask&DirRight != 0 {
		lr = 1
		m |= 1
	}
	if in.DirMask&DirLeft != 0 {
		lr = -1
		m |= 2
	}
	if in.DirMask&DirDown != 0 {
		ud = 1
		m |= 4
	}
	v.vars[varHeroPosUpDown] = ud
	if in.DirMask&DirUp != 0 {
		v.vars[varHeroPosUpDown] = -1
		ud = -1
		m |= 8
	}
	v.vars[varHeroPosJumpDown] = ud
	v.vars[varHeroPosLeftRight] = lr
	v.vars[varHeroPosMask] = m

	var action int16
	if in.Button {
		action = 1
		m |= 0x80
	}
	v.vars[varHeroAction] = action
	v.vars[varHeroActionPosMask] = m
}

// handleSpecialKeys serves pause and the password screen shortcut. It runs
// from the blit opcode so a paused game keeps its last frame on screen.
func (v *VM) handleSpecialKeys() {
	in := v.input
	part := v.res.CurrentPart()

	if in.Pause {
		if part != partProtection && part != partIntro {
			in.Pause = false
			v.log.Info("paused")
			for !in.Pause && !in.Quit {
				v.events.ProcessEvents(in)
				v.clock.Sleep(pausePoll)
			}
			v.lastFrame = v.clock.Now()
			v.log.Info("resumed")
		}
		in.Pause = false
	}

	if in.Code {
		in.Code = false
		if part != partPassword && part != partProtection {
			v.res.requestedPart = partPassword
		}
	}

	if v.vars[0xC9] == 1 {
		v.warnf("script set vars[0xC9]; the copy protection hook is not emulated")
	}
}
