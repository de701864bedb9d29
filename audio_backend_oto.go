//go:build !headless

// audio_backend_oto.go - OTO v3 audio output pulling from the mixer

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	mixer   atomic.Pointer[Mixer] // Atomic for lock-free Read()
	mixBuf  []int8                // Pre-allocated mix buffer
	started bool
	mutex   sync.Mutex // Only for setup/control operations
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{ctx: ctx}, nil
}

func (op *OtoPlayer) SetupPlayer(mixer *Mixer) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.mixer.Store(mixer)
	op.player = op.ctx.NewPlayer(op)
	op.mixBuf = make([]int8, 1024)
}

// Read implements io.Reader for the oto player: mono float32 samples.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	mixer := op.mixer.Load()
	numSamples := len(p) / 4
	if mixer == nil || numSamples == 0 {
		clear(p)
		return len(p), nil
	}

	if len(op.mixBuf) < numSamples {
		op.mixBuf = make([]int8, numSamples)
	}
	samples := op.mixBuf[:numSamples]
	mixer.FillBuffer(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(float32(s)/128))
	}
	clear(p[numSamples*4:])
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Close() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
