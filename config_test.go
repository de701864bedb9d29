package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if p, _ := c.Part(); p != partProtection {
		t.Fatalf("default part %#04x", p)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Audio.SampleRate != defaultSampleRate || c.Save.Name != "polygon" {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/games/another"
start_part = "2"
fast_mode = true

[save]
name = "slot"

[audio]
sample_rate = 22050

[log]
level = "debug"
`)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.DataDir != "/games/another" || !c.FastMode || c.Save.Name != "slot" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.Audio.SampleRate != 22050 {
		t.Fatalf("sample rate %d", c.Audio.SampleRate)
	}
	if c.Display.Scale != 3 || c.Save.Dir != "." {
		t.Fatal("values missing from the file lost their defaults")
	}
	if p, _ := c.Part(); p != 0x3E82 {
		t.Fatalf("part %#04x, want 0x3E82", p)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"syntax", `data_dir = `, "parse error"},
		{"part", `start_part = "0x1234"`, "not a game part"},
		{"part text", `start_part = "intro"`, "start_part"},
		{"rate", "[audio]\nsample_rate = 100", "sample_rate"},
		{"name", "[save]\nname = \"\"", "save.name"},
		{"level", "[log]\nlevel = \"loud\"", "log level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want an error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestConfig_Part(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
	}{
		{"0x3E80", 0x3E80},
		{"0x3e89", 0x3E89},
		{"16001", 0x3E81},
		{"0", 0x3E80},
		{"9", 0x3E89},
	}
	for _, tc := range tests {
		c := DefaultConfig()
		c.StartPart = tc.in
		got, err := c.Part()
		if err != nil || got != tc.want {
			t.Errorf("Part(%q) = %#04x, %v want %#04x", tc.in, got, err, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v want %v", in, got, err, want)
		}
	}
	if _, err := parseLevel("verbose"); err == nil {
		t.Fatal("unknown level accepted")
	}
}
