package main

import (
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"

	"github.com/intuitionamiga/PolygonEngine/archive"
)

const (
	testModuleRes = 1
	testSampleRes = 2
	testModuleOff = 0x100
	testSampleOff = 0x2000
)

type moduleRow [mixerChannels][2]uint16

// buildModule returns a one pattern module using instrument 1 = resource
// testSampleRes at volume 0x20.
func buildModule(delay uint16, rows map[int]moduleRow) []byte {
	mod := make([]byte, sfxPatternData+sfxPatternSize)
	binary.BigEndian.PutUint16(mod[0:], delay)
	binary.BigEndian.PutUint16(mod[2:], testSampleRes)
	binary.BigEndian.PutUint16(mod[4:], 0x20)
	binary.BigEndian.PutUint16(mod[sfxOrderCount:], 1)
	for n, row := range rows {
		for ch, notes := range row {
			off := sfxPatternData + n*sfxRowSize + ch*4
			binary.BigEndian.PutUint16(mod[off:], notes[0])
			binary.BigEndian.PutUint16(mod[off+2:], notes[1])
		}
	}
	return mod
}

// newTestPlayer loads mod and a short sample straight into an arena.
func newTestPlayer(t *testing.T, mod []byte) (*SfxPlayer, *Mixer, *fakeTimers) {
	t.Helper()
	sample := []byte{0, 4, 0, 0, 0, 0, 0, 0, 10, 20, 30, 40, 50, 60, 70, 80}
	rm := &ResourceManager{
		arena: make([]byte, arenaSize),
		list: []archive.Descriptor{
			{},
			{State: archive.StateLoaded, Kind: archive.KindMusic, Offset: testModuleOff, UnpackedSize: uint16(len(mod))},
			{State: archive.StateLoaded, Kind: archive.KindSound, Offset: testSampleOff, UnpackedSize: uint16(len(sample))},
		},
		log: discardLogger(),
	}
	copy(rm.arena[testModuleOff:], mod)
	copy(rm.arena[testSampleOff:], sample)

	mixer := NewMixer(8000)
	timers := newFakeTimers()
	return NewSfxPlayer(mixer, timers, rm, discardLogger()), mixer, timers
}

func TestSfxPlayer_PlayMusicArmsTimer(t *testing.T) {
	p, _, timers := newTestPlayer(t, buildModule(7050, nil))
	p.PlayMusic(testModuleRes, 0, 0)
	if !p.Playing() {
		t.Fatal("module not playing")
	}
	if len(timers.delays) != 1 {
		t.Fatalf("%d timers armed, want 1", len(timers.delays))
	}
	for _, d := range timers.delays {
		if d != 60 {
			t.Fatalf("row delay %dms, want 60", d)
		}
	}

	p.PlayMusic(0, 14100, 0)
	if p.delay != 120 {
		t.Fatalf("tempo change gave delay %d, want 120", p.delay)
	}

	p.PlayMusic(0, 0, 0)
	if p.Playing() || len(timers.fns) != 0 {
		t.Fatal("stop left the module running")
	}
}

func TestSfxPlayer_RowEvents(t *testing.T) {
	rows := map[int]moduleRow{
		0: {{428, 0x1000}, {patternMark, 0x0042}},
		1: {{patternStop, 0}},
		2: {{0, 0x1510}},
		3: {{0, 0x1630}},
	}
	p, mixer, timers := newTestPlayer(t, buildModule(7050, rows))
	p.PlayMusic(testModuleRes, 0, 0)

	timers.fire()
	if !mixer.ActiveChannels()[0] {
		t.Fatal("note did not start channel 0")
	}
	wantInc := uint32(amigaPaulaClock/(428*2)) << 8 / 8000
	if mixer.channels[0].inc != wantInc || mixer.channels[0].volume != 0x20 {
		t.Fatalf("channel 0 inc=%d vol=%#x, want %d and 0x20", mixer.channels[0].inc, mixer.channels[0].volume, wantInc)
	}
	if mark, ok := p.TakeMark(); !ok || mark != 0x42 {
		t.Fatalf("mark = %#x,%v want 0x42,true", mark, ok)
	}
	if _, ok := p.TakeMark(); ok {
		t.Fatal("mark delivered twice")
	}

	timers.fire()
	if mixer.ActiveChannels()[0] {
		t.Fatal("stop command left channel 0 active")
	}

	timers.fire()
	if mixer.channels[0].volume != 0x30 {
		t.Fatalf("effect 5 volume %#x, want 0x30", mixer.channels[0].volume)
	}
	timers.fire()
	if mixer.channels[0].volume != 0 {
		t.Fatalf("effect 6 volume %#x, want 0 (clamped)", mixer.channels[0].volume)
	}
}

func TestSfxPlayer_StopsAfterLastOrder(t *testing.T) {
	p, _, timers := newTestPlayer(t, buildModule(7050, map[int]moduleRow{0: {{428, 0x1000}}}))
	p.PlayMusic(testModuleRes, 0, 0)
	for range sfxPatternSize / sfxRowSize {
		timers.fire()
	}
	if p.Playing() {
		t.Fatal("player still running after the last pattern")
	}
	if len(timers.fns) != 0 {
		t.Fatal("timer still armed after the last pattern")
	}
}

func TestSfxPlayer_WrongKindIsRejected(t *testing.T) {
	p, _, timers := newTestPlayer(t, buildModule(7050, nil))
	p.PlayMusic(testSampleRes, 0, 0)
	if p.Playing() || len(timers.fns) != 0 {
		t.Fatal("a sound resource was accepted as a module")
	}
}

func TestSfxPlayer_StateRoundTrip(t *testing.T) {
	mod := buildModule(7050, nil)
	p, _, _ := newTestPlayer(t, mod)
	p.PlayMusic(testModuleRes, 0, 0)
	p.tick(p.gen)
	p.tick(p.gen)
	st := p.captureState()

	p2, _, timers2 := newTestPlayer(t, mod)
	p2.restoreState(st)
	if !p2.Playing() || len(timers2.fns) != 1 {
		t.Fatal("restored player is not running")
	}
	if p2.mod.curPos != 2*sfxRowSize || p2.resNum != testModuleRes {
		t.Fatalf("restored row %d res %d", p2.mod.curPos, p2.resNum)
	}
}

func TestSfxPlayer_StaleCallbackIsIgnored(t *testing.T) {
	p, _, _ := newTestPlayer(t, buildModule(7050, nil))
	p.PlayMusic(testModuleRes, 0, 0)
	old := p.gen
	p.Start()
	if next := p.tick(old); next != 0 {
		t.Fatalf("stale callback returned %d, want 0", next)
	}
	if p.mod.curPos != 0 {
		t.Fatal("stale callback advanced the row")
	}
}

func TestTimerService_RepeatsAndStops(t *testing.T) {
	ts := NewTimerService()
	defer ts.Close()
	var calls atomic.Int32
	done := make(chan struct{})
	ts.AddTimer(1, func() uint32 {
		if calls.Add(1) == 3 {
			close(done)
			return 0
		}
		return 1
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer fired %d times in 2s", calls.Load())
	}
	deadline := time.Now().Add(time.Second)
	for ts.Pending() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ts.Pending() != 0 {
		t.Fatal("timer returning 0 was not removed")
	}
}

func TestTimerService_RemovePreventsFiring(t *testing.T) {
	ts := NewTimerService()
	defer ts.Close()
	var fired atomic.Bool
	id := ts.AddTimer(50, func() uint32 {
		fired.Store(true)
		return 0
	})
	ts.RemoveTimer(id)
	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Fatal("removed timer fired")
	}
	if ts.Pending() != 0 {
		t.Fatal("removed timer still pending")
	}
}
