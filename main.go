// main.go - Command line entry point

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"golang.org/x/term"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m▄▄▄▄   ▄▄▄  ▄     ▄   ▄  ▄▄▄▄  ▄▄▄  ▄▄  ▄\033[0m")
	fmt.Println("\033[38;2;255;110;147m█▄▄█  █   █ █     ▀▄▄▀  █ ▄▄ █   █ █ █ █\033[0m")
	fmt.Println("\033[38;2;255;200;147m█     ▀▄▄▄▀ █▄▄▄   ██   ▀▄▄█ ▀▄▄▄▀ █  ▀█  ENGINE\033[0m")
	fmt.Println("\nA polygon adventure game engine.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/PolygonEngine")
	fmt.Println("License: GPLv3 or later")
}

// runOptions are the flags that only make sense on the command line.
type runOptions struct {
	configPath  string
	headless    bool
	interactive bool
	loadSlot    int
	finalShot   bool
}

// parseArgs loads the config file named by -config and applies the flags
// that were given on top of it.
func parseArgs(args []string) (*Config, runOptions, error) {
	var (
		opts          runOptions
		dataDir       string
		part          string
		fast          bool
		scale         int
		fullscreen    bool
		frames        uint64
		saveDir       string
		saveName      string
		stringsFile   string
		hookScript    string
		logLevel      string
		logFile       string
		mute          bool
		sampleRate    int
		screenshotDir string
	)

	flagSet := flag.NewFlagSet("polygon", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.configPath, "config", DefaultConfigFile, "Config file")
	flagSet.BoolVar(&opts.headless, "headless", false, "Run without a window")
	flagSet.BoolVar(&opts.interactive, "interactive", false, "Read keys from the terminal in headless mode")
	flagSet.IntVar(&opts.loadSlot, "load", -1, "Load save slot at start (0-99)")
	flagSet.BoolVar(&opts.finalShot, "final-shot", false, "Write a screenshot of the last frame on exit")
	flagSet.StringVar(&dataDir, "data", "", "Directory holding memlist.bin and the banks")
	flagSet.StringVar(&part, "part", "", "Start part (0x3E80-0x3E89, or 0-9)")
	flagSet.BoolVar(&fast, "fast", false, "Do not pace frames")
	flagSet.IntVar(&scale, "scale", 0, "Window scale (1-6)")
	flagSet.BoolVar(&fullscreen, "fullscreen", false, "Start fullscreen")
	flagSet.Uint64Var(&frames, "frames", 0, "Stop after this many host frames (headless)")
	flagSet.StringVar(&saveDir, "save-dir", "", "Directory for save slots")
	flagSet.StringVar(&saveName, "save-name", "", "Base name of save slot files")
	flagSet.StringVar(&stringsFile, "strings", "", "String table override (TOML)")
	flagSet.StringVar(&hookScript, "hooks", "", "Lua hook script")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	flagSet.BoolVar(&mute, "mute", false, "Disable audio output")
	flagSet.IntVar(&sampleRate, "rate", 0, "Audio sample rate")
	flagSet.StringVar(&screenshotDir, "screenshots", "", "Screenshot directory")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./polygon_engine [flags] [data dir]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.Usage()
		}
		return nil, opts, err
	}

	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return nil, opts, err
	}
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.DataDir = dataDir
		case "part":
			cfg.StartPart = part
		case "fast":
			cfg.FastMode = fast
		case "scale":
			cfg.Display.Scale = scale
		case "fullscreen":
			cfg.Display.Fullscreen = fullscreen
		case "frames":
			cfg.Frames = frames
		case "save-dir":
			cfg.Save.Dir = saveDir
		case "save-name":
			cfg.Save.Name = saveName
		case "strings":
			cfg.Strings = stringsFile
		case "hooks":
			cfg.HookScript = hookScript
		case "log-level":
			cfg.Log.Level = logLevel
		case "log-file":
			cfg.Log.File = logFile
		case "mute":
			cfg.Audio.Disabled = mute
		case "rate":
			cfg.Audio.SampleRate = sampleRate
		case "screenshots":
			cfg.Display.ScreenshotDir = screenshotDir
		}
	})
	if flagSet.NArg() > 0 {
		cfg.DataDir = flagSet.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}
	if opts.loadSlot > maxSaveSlot {
		return nil, opts, fmt.Errorf("load slot %d out of range", opts.loadSlot)
	}
	return cfg, opts, nil
}

func main() {
	cfg, opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if !opts.headless {
		boilerPlate()
	}
	if err := run(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *Config, opts runOptions) error {
	log, logCloser, err := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	part, err := cfg.Part()
	if err != nil {
		return err
	}

	var display DisplayBackend
	if opts.headless {
		display = newCaptureDisplay()
	} else {
		display, err = newDisplayBackend(DisplayConfig{
			Scale:         cfg.Display.Scale,
			Fullscreen:    cfg.Display.Fullscreen,
			Title:         "Polygon Engine",
			ScreenshotDir: cfg.Display.ScreenshotDir,
		}, log.With("component", "display"))
		if err != nil {
			return err
		}
	}
	defer display.Close()

	var input InputSource = display
	if opts.headless && opts.interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("-interactive needs a terminal on stdin")
		}
		host := NewTerminalHost()
		if err := host.Start(); err != nil {
			return err
		}
		defer host.Stop()
		input = host
	}

	engine, err := NewEngine(EngineOptions{
		Data:          os.DirFS(cfg.DataDir),
		Surface:       display,
		Input:         input,
		Log:           log,
		SampleRate:    cfg.Audio.SampleRate,
		SaveDir:       cfg.Save.Dir,
		SaveName:      cfg.Save.Name,
		StartPart:     part,
		FastMode:      cfg.FastMode,
		Strings:       cfg.Strings,
		ScreenshotDir: cfg.Display.ScreenshotDir,
		Scale:         cfg.Display.Scale,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if cfg.HookScript != "" {
		hooks, err := NewScriptHooks(engine, cfg.HookScript, "")
		if err != nil {
			return err
		}
		engine.SetHooks(hooks)
	}

	if !cfg.Audio.Disabled && !opts.headless {
		player, err := NewOtoPlayer(cfg.Audio.SampleRate)
		if err != nil {
			log.Warn("audio unavailable", "error", err)
		} else {
			player.SetupPlayer(engine.Mixer())
			player.Start()
			defer player.Close()
		}
	}

	if err := engine.Start(); err != nil {
		return err
	}
	if opts.loadSlot >= 0 {
		if err := engine.LoadState(opts.loadSlot); err != nil {
			log.Warn("load failed", "slot", opts.loadSlot, "error", err)
		}
	}

	display.SetStatusSource(engine.Status)
	if err := display.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		select {
		case <-display.Done():
			stop()
		case <-ctx.Done():
		}
	}()

	var maxFrames uint64
	if opts.headless {
		maxFrames = cfg.Frames
	}
	runErr := engine.Run(ctx, maxFrames)

	if opts.finalShot {
		if path, err := engine.Screenshot(); err != nil {
			log.Warn("screenshot failed", "error", err)
		} else {
			log.Info("screenshot saved", "file", path)
		}
	}
	log.Info("session ended",
		"frames", engine.Frames(),
		"part", "0x"+strconv.FormatUint(uint64(engine.res.CurrentPart()), 16))
	return runErr
}
