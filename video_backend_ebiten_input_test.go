//go:build !headless

package main

import "testing"

func TestRuneToInputByte(t *testing.T) {
	tests := []struct {
		in   rune
		want byte
		ok   bool
	}{
		{'a', 'a', true},
		{'Z', 'z', true},
		{'5', 0, false},
		{'é', 0, false},
	}
	for _, tc := range tests {
		got, ok := runeToInputByte(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("runeToInputByte(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEbitenOutput_ProcessEvents(t *testing.T) {
	eo := NewEbitenOutput(DisplayConfig{}, discardLogger())
	eo.held = PlayerInput{DirMask: DirLeft, Button: true}
	eo.pending = PlayerInput{Save: true, LastChar: 'k'}

	in := PlayerInput{DirMask: DirUp}
	eo.ProcessEvents(&in)
	if in.DirMask != DirLeft || !in.Button {
		t.Fatalf("held state not copied: %+v", in)
	}
	if !in.Save || in.LastChar != 'k' {
		t.Fatalf("one-shots not merged: %+v", in)
	}

	var next PlayerInput
	eo.ProcessEvents(&next)
	if next.Save || next.LastChar != 0 {
		t.Fatal("one-shots delivered twice")
	}
}
