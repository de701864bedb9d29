package main

import (
	"bytes"
	"testing"
	"testing/fstest"
	"time"

	"github.com/intuitionamiga/PolygonEngine/archive"
)

// testResource is one directory entry of a synthetic data set.
type testResource struct {
	kind archive.Kind
	rank uint8
	data []byte
}

// buildDataSet packs res into a data set. Indices that res does not name
// become empty placeholder records so the part table lines up.
func buildDataSet(t *testing.T, res map[int]testResource) fstest.MapFS {
	t.Helper()
	last := 0x7F
	for i := range res {
		last = max(last, i)
	}
	b := archive.NewBuilder()
	for i := 0; i <= last; i++ {
		r, ok := res[i]
		if !ok {
			if _, err := b.Add(archive.KindSound, 0, 0, nil); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if _, err := b.Add(r.kind, r.rank, 1, r.data); err != nil {
			t.Fatal(err)
		}
	}
	fsys := fstest.MapFS{archive.DirectoryFile: &fstest.MapFile{Data: b.Directory()}}
	for id, data := range b.Banks {
		fsys[archive.BankName(id)] = &fstest.MapFile{Data: data}
	}
	return fsys
}

// testPalettes returns a palette resource whose palette n has color i set
// to 0x0RGB = n<<8 | i.
func testPalettes() []byte {
	var out []byte
	for n := range numPalettes {
		for i := range 16 {
			c := uint16(n&0x0F)<<8 | uint16(i)
			out = append(out, byte(c>>8), byte(c))
		}
	}
	return out
}

// partData returns the three resources of the protection part with code as
// its bytecode.
func partData(code []byte) map[int]testResource {
	return map[int]testResource{
		0x14: {archive.KindPalette, 3, testPalettes()},
		0x15: {archive.KindBytecode, 2, code},
		0x16: {archive.KindPolygonCinematic, 1, bytes.Repeat([]byte{0}, 64)},
	}
}

type fakeClock struct {
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
}

// fakeTimers runs timer callbacks only when the test calls fire.
type fakeTimers struct {
	next   TimerID
	fns    map[TimerID]TimerFunc
	delays map[TimerID]uint32
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{fns: make(map[TimerID]TimerFunc), delays: make(map[TimerID]uint32)}
}

func (f *fakeTimers) AddTimer(delayMs uint32, fn TimerFunc) TimerID {
	f.next++
	f.fns[f.next] = fn
	f.delays[f.next] = delayMs
	return f.next
}

func (f *fakeTimers) RemoveTimer(id TimerID) {
	delete(f.fns, id)
	delete(f.delays, id)
}

// fire runs every live callback once.
func (f *fakeTimers) fire() {
	for id, fn := range f.fns {
		next := fn()
		if _, ok := f.fns[id]; !ok {
			continue
		}
		if next == 0 {
			f.RemoveTimer(id)
			continue
		}
		f.delays[id] = next
	}
}

// scriptedInput replays one PlayerInput per ProcessEvents call.
type scriptedInput struct {
	frames []PlayerInput
}

func (s *scriptedInput) ProcessEvents(in *PlayerInput) {
	if len(s.frames) == 0 {
		in.DirMask = 0
		in.Button = false
		return
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	in.DirMask = f.DirMask
	in.Button = f.Button
	mergeOneShots(in, &f)
}

type testEngine struct {
	*Engine
	surface *CaptureSurface
	timers  *fakeTimers
	clock   *fakeClock
}

// newTestEngine starts an engine on the protection part running code.
func newTestEngine(t *testing.T, code []byte, extra map[int]testResource) *testEngine {
	t.Helper()
	res := partData(code)
	for i, r := range extra {
		res[i] = r
	}
	return newTestEngineData(t, buildDataSet(t, res), nil)
}

func newTestEngineData(t *testing.T, fsys fstest.MapFS, input InputSource) *testEngine {
	t.Helper()
	te := &testEngine{
		surface: NewCaptureSurface(),
		timers:  newFakeTimers(),
		clock:   newFakeClock(),
	}
	e, err := NewEngine(EngineOptions{
		Data:          fsys,
		Surface:       te.surface,
		Input:         input,
		Timers:        te.timers,
		Clock:         te.clock,
		FastMode:      true,
		SaveDir:       t.TempDir(),
		ScreenshotDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	te.Engine = e
	return te
}

func (te *testEngine) step(t *testing.T, n int) {
	t.Helper()
	for range n {
		if err := te.Step(); err != nil {
			t.Fatalf("frame %d: %v", te.frames, err)
		}
	}
}

// program assembles bytecode for tests.
type program struct {
	code []byte
}

func (p *program) pc() uint16 { return uint16(len(p.code)) }

func (p *program) emit(b ...byte) *program {
	p.code = append(p.code, b...)
	return p
}

func (p *program) word(w uint16) *program {
	return p.emit(byte(w>>8), byte(w))
}

func (p *program) movConst(v uint8, n int16) *program {
	return p.emit(0x00, v).word(uint16(n))
}

func (p *program) addConst(v uint8, n int16) *program {
	return p.emit(0x03, v).word(uint16(n))
}

func (p *program) call(off uint16) *program    { return p.emit(0x04).word(off) }
func (p *program) ret() *program               { return p.emit(0x05) }
func (p *program) yield() *program             { return p.emit(0x06) }
func (p *program) jmp(off uint16) *program     { return p.emit(0x07).word(off) }
func (p *program) kill() *program              { return p.emit(0x11) }
func (p *program) blit(page uint8) *program    { return p.emit(0x10, page) }
func (p *program) loadRes(id uint16) *program  { return p.emit(0x19).word(id) }
func (p *program) setPalette(n uint8) *program { return p.emit(0x0B, n, 0) }

func (p *program) setVect(id uint8, off uint16) *program {
	return p.emit(0x08, id).word(off)
}

func (p *program) jnz(v uint8, off uint16) *program {
	return p.emit(0x09, v).word(off)
}

func (p *program) changeTasks(first, last, action uint8) *program {
	return p.emit(0x0C, first, last, action)
}

func (p *program) fillPage(page, color uint8) *program {
	return p.emit(0x0E, page, color)
}

func (p *program) playMusic(res, delay uint16, pos uint8) *program {
	return p.emit(0x1A).word(res).word(delay).emit(pos)
}

func (p *program) playSound(res uint16, freq, vol, channel uint8) *program {
	return p.emit(0x18).word(res).emit(freq, vol, channel)
}

// pixel reads the 4 bit color at x,y of page.
func pixel(r *Renderer, page, x, y int) uint8 {
	b := r.pages[page][y*pageStride+x/2]
	if x&1 == 0 {
		return b >> 4
	}
	return b & 0x0F
}
