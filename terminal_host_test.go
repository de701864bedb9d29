package main

import (
	"testing"
	"time"
)

func newTestTerminal() (*TerminalHost, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewTerminalHost()
	h.now = func() time.Time { return now }
	return h, &now
}

func feed(h *TerminalHost, s string) {
	for i := range len(s) {
		h.routeKey(s[i])
	}
}

func TestTerminalHost_ArrowsHoldDirection(t *testing.T) {
	h, now := newTestTerminal()
	feed(h, "\x1b[A\x1bOC")

	var in PlayerInput
	h.ProcessEvents(&in)
	if in.DirMask != DirUp|DirRight {
		t.Fatalf("dir mask %#x, want up and right", in.DirMask)
	}

	*now = now.Add(keyHold / 2)
	feed(h, "\x1b[A")
	*now = now.Add(keyHold/2 + time.Millisecond)
	h.ProcessEvents(&in)
	if in.DirMask != DirUp {
		t.Fatalf("dir mask %#x, want only the repeated up", in.DirMask)
	}

	*now = now.Add(keyHold)
	h.ProcessEvents(&in)
	if in.DirMask != 0 {
		t.Fatalf("dir mask %#x after release", in.DirMask)
	}
}

func TestTerminalHost_Button(t *testing.T) {
	h, now := newTestTerminal()
	feed(h, " ")
	var in PlayerInput
	h.ProcessEvents(&in)
	if !in.Button {
		t.Fatal("space did not press the button")
	}
	*now = now.Add(keyHold)
	h.ProcessEvents(&in)
	if in.Button {
		t.Fatal("button still held")
	}
}

func TestTerminalHost_OneShots(t *testing.T) {
	h, _ := newTestTerminal()
	feed(h, "\x13+c")
	var in PlayerInput
	h.ProcessEvents(&in)
	if !in.Save || in.StateSlot != 1 || !in.Code || in.LastChar != 'c' {
		t.Fatalf("one-shots not delivered: %+v", in)
	}

	var next PlayerInput
	h.ProcessEvents(&next)
	if next.Save || next.Code || next.StateSlot != 0 {
		t.Fatal("one-shots delivered twice")
	}
}

func TestTerminalHost_QuitKeys(t *testing.T) {
	h, _ := newTestTerminal()
	feed(h, "q")
	var in PlayerInput
	h.ProcessEvents(&in)
	if in.Quit || in.LastChar != 'q' {
		t.Fatalf("lowercase q: %+v, want a password letter", in)
	}

	for _, key := range []string{"Q", "\x03"} {
		feed(h, key)
		var in PlayerInput
		h.ProcessEvents(&in)
		if !in.Quit {
			t.Fatalf("%q did not quit", key)
		}
	}
}

func TestTerminalHost_EscapeThenLetter(t *testing.T) {
	h, _ := newTestTerminal()
	feed(h, "\x1bx\x7f")
	var in PlayerInput
	h.ProcessEvents(&in)
	if in.LastChar != 8 {
		t.Fatalf("last char %d, want backspace", in.LastChar)
	}
	if in.DirMask != 0 {
		t.Fatal("broken escape sequence moved the player")
	}
}
