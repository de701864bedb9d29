// engine.go - Host loop tying the interpreter, renderer and audio together

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync/atomic"
)

// EngineOptions wires an Engine to its data set and host services.
type EngineOptions struct {
	Data       fs.FS
	Surface    Surface
	Input      InputSource
	Timers     Timers // nil uses a TimerService owned by the engine
	Clock      Clock
	Log        *slog.Logger
	SampleRate int

	SaveDir  string
	SaveName string

	StartPart     uint16
	FastMode      bool
	Strings       string // optional string table file
	ScreenshotDir string
	Scale         int
}

// EngineStatus is a snapshot of the session for display overlays.
type EngineStatus struct {
	Part     uint16
	Slot     int
	FastMode bool
	Music    bool
	Frames   uint64
}

// Engine runs one game session.
type Engine struct {
	opts EngineOptions
	log  *slog.Logger

	res    *ResourceManager
	video  *Renderer
	vm     *VM
	mixer  *Mixer
	player *SfxPlayer
	timers *TimerService // owned, nil when the caller supplied Timers

	input  PlayerInput
	hooks  *ScriptHooks
	slot   int
	frames uint64
	status atomic.Pointer[EngineStatus]
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Log == nil {
		opts.Log = discardLogger()
	}
	if opts.SaveName == "" {
		opts.SaveName = "polygon"
	}
	if opts.StartPart == 0 {
		opts.StartPart = partProtection
	}
	e := &Engine{opts: opts, log: opts.Log}

	e.video = NewRenderer(opts.Surface, opts.Log.With("component", "video"))
	if opts.Strings != "" {
		n, err := e.video.LoadStrings(opts.Strings)
		if err != nil {
			return nil, err
		}
		e.log.Info("string table loaded", "file", opts.Strings, "entries", n)
	}

	res, err := NewResourceManager(opts.Data, e.video, opts.Log.With("component", "resources"))
	if err != nil {
		return nil, err
	}
	e.res = res

	timers := opts.Timers
	if timers == nil {
		e.timers = NewTimerService()
		timers = e.timers
	}
	e.mixer = NewMixer(opts.SampleRate)
	e.player = NewSfxPlayer(e.mixer, timers, res, opts.Log.With("component", "music"))
	e.vm = NewVM(res, e.video, e.mixer, e.player, opts.Input, &e.input, opts.Clock, opts.Log.With("component", "vm"))
	e.vm.fastMode = opts.FastMode
	e.vm.onPart = e.partChanged
	return e, nil
}

// Mixer returns the mixer for the audio backend.
func (e *Engine) Mixer() *Mixer {
	return e.mixer
}

// SetHooks attaches per-frame scripts.
func (e *Engine) SetHooks(h *ScriptHooks) {
	e.hooks = h
}

// Frames returns the number of host frames run so far.
func (e *Engine) Frames() uint64 {
	return e.frames
}

// Start loads the first part.
func (e *Engine) Start() error {
	return e.vm.initForPart(e.opts.StartPart)
}

// Run steps host frames until ctx is cancelled, the player quits, maxFrames
// frames have run (0 means no limit) or a fatal error occurs.
func (e *Engine) Run(ctx context.Context, maxFrames uint64) error {
	for !e.input.Quit {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if maxFrames > 0 && e.frames >= maxFrames {
			return nil
		}
		if err := e.Step(); err != nil {
			e.log.Error("engine stopped", "frame", e.frames, "part", fmt.Sprintf("%#04x", e.res.CurrentPart()), "error", err)
			return err
		}
	}
	e.log.Info("quit requested", "frame", e.frames)
	return nil
}

// Step runs one host frame: scheduling requests, input, then every runnable
// thread.
func (e *Engine) Step() error {
	if err := e.vm.checkThreadRequests(); err != nil {
		return err
	}
	e.vm.updatePlayer()
	e.processInput()
	if e.hooks != nil {
		if err := e.hooks.OnFrame(e.frames); err != nil {
			e.log.Warn("frame hook failed", "error", err)
		}
	}
	if err := e.vm.hostFrame(); err != nil {
		return err
	}
	e.frames++
	e.status.Store(&EngineStatus{
		Part:     e.res.CurrentPart(),
		Slot:     e.slot,
		FastMode: e.vm.fastMode,
		Music:    e.player.Playing(),
		Frames:   e.frames,
	})
	return nil
}

// Status returns the state published after the last host frame. It is safe
// to call from any goroutine.
func (e *Engine) Status() EngineStatus {
	if s := e.status.Load(); s != nil {
		return *s
	}
	return EngineStatus{}
}

func (e *Engine) partChanged(part uint16) {
	if e.hooks == nil {
		return
	}
	if err := e.hooks.OnPart(part); err != nil {
		e.log.Warn("part hook failed", "error", err)
	}
}

// processInput serves the host one-shots: save slots, fast mode and
// screenshots.
func (e *Engine) processInput() {
	in := &e.input
	if in.StateSlot != 0 {
		e.slot = max(0, min(e.slot+int(in.StateSlot), maxSaveSlot))
		e.log.Info("save slot selected", "slot", e.slot)
		in.StateSlot = 0
	}
	if in.Save {
		in.Save = false
		if err := e.SaveState(e.slot, "quicksave"); err != nil {
			e.log.Warn("save failed", "slot", e.slot, "error", err)
		}
	}
	if in.Load {
		in.Load = false
		if err := e.LoadState(e.slot); err != nil {
			e.log.Warn("load failed", "slot", e.slot, "error", err)
		}
	}
	if in.FastMode {
		in.FastMode = false
		e.vm.fastMode = !e.vm.fastMode
		e.log.Info("fast mode", "enabled", e.vm.fastMode)
	}
	if in.Screenshot {
		in.Screenshot = false
		if path, err := e.Screenshot(); err != nil {
			e.log.Warn("screenshot failed", "error", err)
		} else {
			e.log.Info("screenshot saved", "file", path)
		}
	}
}

// Screenshot writes the front page as a PNG.
func (e *Engine) Screenshot() (string, error) {
	img := frameImage(e.video.pages[e.video.front][:], &e.video.palette)
	return saveScreenshot(e.opts.ScreenshotDir, img, e.opts.Scale)
}

// Close stops audio and the engine's timers.
func (e *Engine) Close() {
	e.player.Stop()
	e.mixer.StopAll()
	if e.timers != nil {
		e.timers.Close()
	}
	if e.hooks != nil {
		e.hooks.Close()
	}
}
