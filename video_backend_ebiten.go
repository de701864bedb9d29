//go:build !headless

// video_backend_ebiten.go - Ebiten window surface and keyboard input

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

type EbitenOutput struct {
	running     atomic.Bool
	window      *ebiten.Image
	fullscreen  bool
	scale       int
	title       string
	bufferMutex sync.RWMutex
	palette     [16]color.RGBA
	packed      [pageSize]byte
	frameBuffer []byte
	frameCount  uint64
	ready       chan struct{}
	readyOnce   sync.Once
	done        chan struct{}
	doneOnce    sync.Once
	log         *slog.Logger

	inputMutex sync.Mutex
	held       PlayerInput
	pending    PlayerInput

	clipboardOnce sync.Once
	clipboardOK   bool
	showStatusBar bool
	status        func() EngineStatus
}

func NewEbitenOutput(config DisplayConfig, log *slog.Logger) *EbitenOutput {
	title := config.Title
	if title == "" {
		title = "Polygon Engine"
	}
	return &EbitenOutput{
		fullscreen:  config.Fullscreen,
		scale:       ClampScale(config.Scale),
		title:       title,
		frameBuffer: make([]byte, screenWidth*screenHeight*4),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		log:         log,
	}
}

func newDisplayBackend(config DisplayConfig, log *slog.Logger) (DisplayBackend, error) {
	return NewEbitenOutput(config, log), nil
}

// SetStatusSource sets where the F12 status bar reads engine state from.
func (eo *EbitenOutput) SetStatusSource(fn func() EngineStatus) {
	eo.bufferMutex.Lock()
	eo.status = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) Start() error {
	if eo.running.Swap(true) {
		return nil
	}
	ebiten.SetWindowSize(screenWidth*eo.scale, screenHeight*eo.scale)
	ebiten.SetWindowTitle(eo.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		defer func() {
			eo.running.Store(false)
			eo.doneOnce.Do(func() { close(eo.done) })
			eo.readyOnce.Do(func() { close(eo.ready) })
		}()
		if err := ebiten.RunGame(eo); err != nil {
			eo.log.Error("ebiten stopped", "error", err)
		}
	}()

	// Wait for the first Draw so the window exists
	<-eo.ready
	return nil
}

func (eo *EbitenOutput) Close() error {
	eo.running.Store(false)
	return nil
}

func (eo *EbitenOutput) Done() <-chan struct{} {
	return eo.done
}

func (eo *EbitenOutput) SetPalette(start, count int, colors []color.RGBA) {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()
	for i := 0; i < count && i < len(colors) && start+i < len(eo.palette); i++ {
		eo.palette[start+i] = colors[i]
	}
	expandFrame(eo.frameBuffer, eo.packed[:], &eo.palette)
}

func (eo *EbitenOutput) PresentFrame(width, height int, packed []byte) {
	if width != screenWidth || height != screenHeight {
		return
	}
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()
	copy(eo.packed[:], packed)
	expandFrame(eo.frameBuffer, eo.packed[:], &eo.palette)
}

func (eo *EbitenOutput) ProcessEvents(in *PlayerInput) {
	eo.inputMutex.Lock()
	defer eo.inputMutex.Unlock()
	in.DirMask = eo.held.DirMask
	in.Button = eo.held.Button
	mergeOneShots(in, &eo.pending)
	eo.pending = PlayerInput{}
}

func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() || !eo.running.Load() {
		eo.inputMutex.Lock()
		eo.pending.Quit = true
		eo.inputMutex.Unlock()
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.bufferMutex.Lock()
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(screenWidth*eo.scale, screenHeight*eo.scale)
		}
		eo.bufferMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		eo.bufferMutex.Lock()
		eo.showStatusBar = !eo.showStatusBar
		eo.bufferMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		eo.copyFrameToClipboard()
	}
	eo.handleKeyboardInput()
	return nil
}

func anyPressed(keys ...ebiten.Key) bool {
	for _, k := range keys {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

func (eo *EbitenOutput) handleKeyboardInput() {
	var held PlayerInput
	if anyPressed(ebiten.KeyArrowLeft) {
		held.DirMask |= DirLeft
	}
	if anyPressed(ebiten.KeyArrowRight) {
		held.DirMask |= DirRight
	}
	if anyPressed(ebiten.KeyArrowUp) {
		held.DirMask |= DirUp
	}
	if anyPressed(ebiten.KeyArrowDown) {
		held.DirMask |= DirDown
	}
	held.Button = anyPressed(ebiten.KeySpace, ebiten.KeyEnter, ebiten.KeyNumpadEnter)

	ctrl := anyPressed(ebiten.KeyControlLeft, ebiten.KeyControlRight)

	eo.inputMutex.Lock()
	defer eo.inputMutex.Unlock()
	eo.held = held
	p := &eo.pending

	for _, r := range ebiten.AppendInputChars(nil) {
		if b, ok := runeToInputByte(r); ok {
			p.LastChar = b
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		p.LastChar = 8
	}
	if ctrl {
		p.Save = p.Save || inpututil.IsKeyJustPressed(ebiten.KeyS)
		p.Load = p.Load || inpututil.IsKeyJustPressed(ebiten.KeyL)
		p.FastMode = p.FastMode || inpututil.IsKeyJustPressed(ebiten.KeyF)
	} else {
		p.Code = p.Code || inpututil.IsKeyJustPressed(ebiten.KeyC)
		p.Pause = p.Pause || inpututil.IsKeyJustPressed(ebiten.KeyP)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) || inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		p.StateSlot = 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) || inpututil.IsKeyJustPressed(ebiten.KeyPageDown) {
		p.StateSlot = -1
	}
	p.Screenshot = p.Screenshot || inpututil.IsKeyJustPressed(ebiten.KeyF8)
	p.Quit = p.Quit || inpututil.IsKeyJustPressed(ebiten.KeyEscape)
}

// runeToInputByte keeps the lower case letters the password screen reads.
func runeToInputByte(r rune) (byte, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	if r < 'a' || r > 'z' {
		return 0, false
	}
	return byte(r), true
}

func (eo *EbitenOutput) copyFrameToClipboard() {
	eo.clipboardOnce.Do(func() {
		eo.clipboardOK = clipboard.Init() == nil
	})
	if !eo.clipboardOK {
		eo.log.Warn("clipboard unavailable")
		return
	}
	eo.bufferMutex.RLock()
	img := frameImage(eo.packed[:], &eo.palette)
	eo.bufferMutex.RUnlock()
	data, err := encodePNG(img, eo.scale)
	if err != nil {
		eo.log.Warn("clipboard copy failed", "error", err)
		return
	}
	clipboard.Write(clipboard.FmtImage, data)
	eo.log.Info("frame copied to clipboard")
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.window == nil {
		eo.window = ebiten.NewImage(screenWidth, screenHeight)
	}

	eo.bufferMutex.RLock()
	eo.window.WritePixels(eo.frameBuffer)
	showStatusBar := eo.showStatusBar
	status := eo.status
	eo.bufferMutex.RUnlock()
	screen.DrawImage(eo.window, nil)
	if showStatusBar && status != nil {
		drawStatusBar(screen, status())
	}

	eo.frameCount++
	eo.readyOnce.Do(func() { close(eo.ready) })
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight
}

type statusToken struct {
	name    string
	enabled bool
}

func drawStatusLine(screen *ebiten.Image, x, baselineY int, label string, tokens []statusToken) {
	face := basicfont.Face7x13
	labelColor := color.RGBA{190, 190, 190, 255}
	offColor := color.RGBA{120, 120, 120, 255}
	onColor := color.RGBA{0, 220, 90, 255}

	text.Draw(screen, label, face, x, baselineY, labelColor)
	cursorX := x + text.BoundString(face, label).Dx() + 6

	for _, token := range tokens {
		c := offColor
		if token.enabled {
			c = onColor
		}
		text.Draw(screen, token.name, face, cursorX, baselineY, c)
		cursorX += text.BoundString(face, token.name).Dx() + 8
	}
}

func drawStatusBar(screen *ebiten.Image, s EngineStatus) {
	barHeight := 30
	y := screenHeight - barHeight
	ebitenutil.DrawRect(screen, 0, float64(y), screenWidth, float64(barHeight), color.RGBA{0, 0, 0, 180})

	drawStatusLine(screen, 4, y+12, fmt.Sprintf("PART %04X", s.Part), []statusToken{
		{name: fmt.Sprintf("SLOT %02d", s.Slot), enabled: true},
		{name: "FAST", enabled: s.FastMode},
		{name: "MUSIC", enabled: s.Music},
	})
	drawStatusLine(screen, 4, y+26, "FRAME", []statusToken{
		{name: fmt.Sprintf("%d", s.Frames), enabled: true},
		{name: "F8 PNG F9 COPY F11 FULL", enabled: false},
	})
}
