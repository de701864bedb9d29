//go:build headless

// video_backend_headless.go - Window-less display backend

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import "log/slog"

func newDisplayBackend(_ DisplayConfig, _ *slog.Logger) (DisplayBackend, error) {
	return newCaptureDisplay(), nil
}
