// main.go - awtool command line

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: awtool <command> [options]\n\nInspects and builds Polygon Engine data sets.\n\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  list DIR                    list the resource directory\n")
	fmt.Fprintf(os.Stderr, "  extract [-i N] DIR OUTDIR   unpack resources to files\n")
	fmt.Fprintf(os.Stderr, "  verify [-j N] DIR           unpack every resource and check it\n")
	fmt.Fprintf(os.Stderr, "  pack -o OUTDIR MANIFEST     build a data set from a TOML manifest\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  awtool list data/\n")
	fmt.Fprintf(os.Stderr, "  awtool extract -i 21 data/ out/\n")
	fmt.Fprintf(os.Stderr, "  awtool pack -o testdata/ manifest.toml\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	if err := runCommand(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(cmd string, args []string) error {
	flags := flag.NewFlagSet(cmd, flag.ExitOnError)
	switch cmd {
	case "list":
		flags.Parse(args)
		if flags.NArg() != 1 {
			usage()
			os.Exit(1)
		}
		return listDataSet(os.Stdout, os.DirFS(flags.Arg(0)))

	case "extract":
		index := flags.Int("i", -1, "Only extract this resource")
		flags.Parse(args)
		if flags.NArg() != 2 {
			usage()
			os.Exit(1)
		}
		return extractDataSet(os.Stdout, os.DirFS(flags.Arg(0)), flags.Arg(1), *index)

	case "verify":
		jobs := flags.Int("j", runtime.NumCPU(), "Parallel jobs")
		flags.Parse(args)
		if flags.NArg() != 1 {
			usage()
			os.Exit(1)
		}
		failed, err := verifyDataSet(os.Stdout, os.DirFS(flags.Arg(0)), *jobs)
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d resource(s) failed to unpack", failed)
		}
		return nil

	case "pack":
		out := flags.String("o", "", "Output directory")
		flags.Parse(args)
		if flags.NArg() != 1 || *out == "" {
			usage()
			os.Exit(1)
		}
		return packDataSet(os.Stdout, flags.Arg(0), *out)

	case "-h", "-help", "--help", "help":
		usage()
		return nil
	}
	usage()
	return fmt.Errorf("unknown command %q", cmd)
}
