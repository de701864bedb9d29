//go:build headless

// audio_backend_headless.go - Silent audio output

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

// OtoPlayer drains nothing; the mixer is still stepped by tests directly.
type OtoPlayer struct {
	started bool
	mixer   *Mixer
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (op *OtoPlayer) SetupPlayer(mixer *Mixer) {
	op.mixer = mixer
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	clear(p)
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Close() {
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}
