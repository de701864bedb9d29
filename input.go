// input.go - Player input snapshot shared by the backends and the engine

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

// Direction bits of PlayerInput.DirMask.
const (
	DirLeft  = 1 << 0
	DirRight = 1 << 1
	DirUp    = 1 << 2
	DirDown  = 1 << 3
)

// PlayerInput is the input state polled once per frame. DirMask and Button
// reflect keys held right now; the other fields are one-shot requests set
// by the source and cleared by the engine once handled.
type PlayerInput struct {
	DirMask uint8
	Button  bool

	Code       bool // jump to the password screen
	Pause      bool
	Quit       bool
	Save       bool
	Load       bool
	FastMode   bool
	StateSlot  int8 // save slot delta
	LastChar   byte
	Screenshot bool
}

// InputSource updates in with the events gathered since the last call.
// Held state is overwritten, one-shot requests are only ever set.
type InputSource interface {
	ProcessEvents(in *PlayerInput)
}

// noInput is the source used when nothing is attached.
type noInput struct{}

func (noInput) ProcessEvents(*PlayerInput) {}

// mergeOneShots sets the one-shot requests of src in dst.
func mergeOneShots(dst *PlayerInput, src *PlayerInput) {
	dst.Code = dst.Code || src.Code
	dst.Pause = dst.Pause || src.Pause
	dst.Quit = dst.Quit || src.Quit
	dst.Save = dst.Save || src.Save
	dst.Load = dst.Load || src.Load
	dst.FastMode = dst.FastMode || src.FastMode
	dst.Screenshot = dst.Screenshot || src.Screenshot
	if src.StateSlot != 0 {
		dst.StateSlot = src.StateSlot
	}
	if src.LastChar != 0 {
		dst.LastChar = src.LastChar
	}
}
