//go:build !windows

// terminal_host_unix.go - Non-blocking stdin reader for TerminalHost

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
	"syscall"
	"time"

	"golang.org/x/term"
)

// Start puts stdin in raw non-blocking mode and reads it in a goroutine.
// Call Stop() to restore stdin.
func (h *TerminalHost) Start() error {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("terminal: cannot set raw mode: %w", err)
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return fmt.Errorf("terminal: cannot set nonblocking stdin: %w", err)
	}

	go func() {
		defer close(h.done)
		buf := make([]byte, 16)
		for {
			select {
			case <-h.stopCh:
				return
			default:
			}
			n, err := syscall.Read(h.fd, buf)
			for i := 0; i < n; i++ {
				h.routeKey(buf[i])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n <= 0 {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

func (h *TerminalHost) restore() {
	if h.oldTermState == nil {
		return
	}
	_ = syscall.SetNonblock(h.fd, false)
	_ = term.Restore(h.fd, h.oldTermState)
	h.oldTermState = nil
}
