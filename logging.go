// logging.go - slog setup with console and file fan-out

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/term"
)

var logLevel = new(slog.LevelVar)

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// newLogger builds the engine logger. The console handler writes text when
// console is a terminal and JSON otherwise. A non-empty file adds a JSON
// handler appending to that file; the returned closer closes it.
func newLogger(console *os.File, level, file string) (*slog.Logger, io.Closer, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	logLevel.Set(lvl)
	opts := &slog.HandlerOptions{Level: logLevel}

	var consoleHandler slog.Handler
	if term.IsTerminal(int(console.Fd())) {
		consoleHandler = slog.NewTextHandler(console, opts)
	} else {
		consoleHandler = slog.NewJSONHandler(console, opts)
	}
	if file == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file %s: %w", file, err)
	}
	h := slogmulti.Fanout(consoleHandler, slog.NewJSONHandler(f, opts))
	return slog.New(h), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// discardLogger is used by components created without a logger.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
