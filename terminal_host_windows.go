//go:build windows

// terminal_host_windows.go - Blocking stdin reader for TerminalHost

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// Start sets stdin to raw mode and reads it in a goroutine. The read blocks,
// so Stop only returns once a key arrives or stdin closes.
func (h *TerminalHost) Start() error {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("terminal: cannot set raw mode: %w", err)
	}
	h.oldTermState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 16)
		for {
			select {
			case <-h.stopCh:
				return
			default:
			}
			n, err := os.Stdin.Read(buf)
			for i := 0; i < n; i++ {
				h.routeKey(buf[i])
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
	return nil
}

func (h *TerminalHost) restore() {
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
