// config.go - engine.toml settings

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigFile = "engine.toml"
	defaultSampleRate = 44100
)

// Config is the layout of engine.toml. Every field is optional; command
// line flags override the file.
type Config struct {
	DataDir   string `toml:"data_dir"`
	StartPart string `toml:"start_part"`
	FastMode  bool   `toml:"fast_mode"`

	Save struct {
		Dir  string `toml:"dir"`
		Name string `toml:"name"`
	} `toml:"save"`

	Display struct {
		Scale         int    `toml:"scale"`
		Fullscreen    bool   `toml:"fullscreen"`
		ScreenshotDir string `toml:"screenshot_dir"`
	} `toml:"display"`

	Audio struct {
		SampleRate int  `toml:"sample_rate"`
		Disabled   bool `toml:"disabled"`
	} `toml:"audio"`

	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`

	HookScript string `toml:"hook_script"`
	Strings    string `toml:"strings"`
	Frames     uint64 `toml:"frames"` // headless runs stop after this many host frames
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	c := &Config{
		DataDir:   ".",
		StartPart: "0x3E80",
	}
	c.Save.Dir = "."
	c.Save.Name = "polygon"
	c.Display.Scale = 3
	c.Display.ScreenshotDir = "screenshots"
	c.Audio.SampleRate = defaultSampleRate
	c.Log.Level = "info"
	return c
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks values a file can get wrong.
func (c *Config) Validate() error {
	if _, err := c.Part(); err != nil {
		return err
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("audio.sample_rate %d out of range", c.Audio.SampleRate)
	}
	if c.Save.Name == "" {
		return errors.New("save.name is empty")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Part parses start_part, which may be decimal or 0x prefixed. Values below
// 10 are taken as a part number counted from the protection screen.
func (c *Config) Part() (uint16, error) {
	v, err := strconv.ParseUint(c.StartPart, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("start_part %q: %w", c.StartPart, err)
	}
	part := uint16(v)
	if part < partLast-partFirst+1 {
		part += partFirst
	}
	if part < partFirst || part > partLast {
		return 0, fmt.Errorf("start_part %#04x is not a game part", part)
	}
	return part, nil
}
