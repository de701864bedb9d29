// audio_timers.go - Millisecond callback timers driving the music player

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
)

type TimerID uint32

// TimerFunc runs on the timer goroutine and returns the delay in
// milliseconds until it should run again, or 0 to stop.
type TimerFunc func() uint32

// Timers schedules repeating callbacks.
type Timers interface {
	AddTimer(delayMs uint32, fn TimerFunc) TimerID
	RemoveTimer(id TimerID)
}

type timerEntry struct {
	fn    TimerFunc
	timer *time.Timer
}

// TimerService implements Timers on top of time.AfterFunc. A removed timer
// never fires again, even when its callback is running during the removal.
type TimerService struct {
	mu     sync.Mutex
	next   TimerID
	timers map[TimerID]*timerEntry
}

func NewTimerService() *TimerService {
	return &TimerService{timers: make(map[TimerID]*timerEntry)}
}

func (ts *TimerService) AddTimer(delayMs uint32, fn TimerFunc) TimerID {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.next++
	id := ts.next
	e := &timerEntry{fn: fn}
	ts.timers[id] = e
	e.timer = time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() { ts.fire(id) })
	return id
}

func (ts *TimerService) fire(id TimerID) {
	ts.mu.Lock()
	e, ok := ts.timers[id]
	ts.mu.Unlock()
	if !ok {
		return
	}
	next := e.fn()

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, ok := ts.timers[id]; !ok {
		return
	}
	if next == 0 {
		delete(ts.timers, id)
		return
	}
	e.timer.Reset(time.Duration(next) * time.Millisecond)
}

func (ts *TimerService) RemoveTimer(id TimerID) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if e, ok := ts.timers[id]; ok {
		e.timer.Stop()
		delete(ts.timers, id)
	}
}

// Close stops every timer.
func (ts *TimerService) Close() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for id, e := range ts.timers {
		e.timer.Stop()
		delete(ts.timers, id)
	}
}

// Pending returns the number of live timers.
func (ts *TimerService) Pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.timers)
}
