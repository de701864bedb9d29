// tool.go - Data set inspection and packing

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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"

	"github.com/intuitionamiga/PolygonEngine/archive"
)

// listDataSet prints one line per directory entry followed by totals.
func listDataSet(w io.Writer, fsys fs.FS) error {
	list, err := archive.ReadDirectory(fsys)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-5s %-10s %-6s %-8s %9s %9s %6s\n", "IDX", "KIND", "BANK", "OFFSET", "PACKED", "SIZE", "RATIO")
	var packed, unpacked uint64
	for i, d := range list {
		ratio := "-"
		if d.Packed() && d.UnpackedSize > 0 {
			ratio = fmt.Sprintf("%.0f%%", 100*float64(d.PackedSize)/float64(d.UnpackedSize))
		}
		fmt.Fprintf(w, "%-5d %-10s %-6s %#08x %9s %9s %6s\n",
			i, d.Kind, archive.BankName(d.BankID), d.BankOffset,
			humanize.IBytes(uint64(d.PackedSize)), humanize.IBytes(uint64(d.UnpackedSize)), ratio)
		packed += uint64(d.PackedSize)
		unpacked += uint64(d.UnpackedSize)
	}
	fmt.Fprintf(w, "%d resources, %s stored, %s unpacked\n",
		len(list), humanize.IBytes(packed), humanize.IBytes(unpacked))
	return nil
}

func extractName(i int, d archive.Descriptor) string {
	return fmt.Sprintf("res_%03d_%s.bin", i, d.Kind)
}

// extractDataSet unpacks every resource, or only index when it is not
// negative, into dir.
func extractDataSet(w io.Writer, fsys fs.FS, dir string, index int) error {
	list, err := archive.ReadDirectory(fsys)
	if err != nil {
		return err
	}
	if index >= len(list) {
		return fmt.Errorf("resource %d not in directory (%d entries)", index, len(list))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	banks := archive.NewBankReader(fsys)
	for i := range list {
		if index >= 0 && i != index {
			continue
		}
		d := &list[i]
		if d.BankID == 0 || d.UnpackedSize == 0 {
			continue
		}
		data, err := banks.Load(d)
		if err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}
		path := filepath.Join(dir, extractName(i, *d))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", path, humanize.IBytes(uint64(len(data))))
	}
	return nil
}

type verifyFailure struct {
	index int
	err   error
}

// verifyDataSet unpacks every resource with at most jobs running at once
// and reports the ones that fail.
func verifyDataSet(w io.Writer, fsys fs.FS, jobs int) (int, error) {
	list, err := archive.ReadDirectory(fsys)
	if err != nil {
		return 0, err
	}
	if jobs < 1 {
		jobs = 1
	}
	banks := archive.NewBankReader(fsys)

	var (
		mu       sync.Mutex
		failures []verifyFailure
	)
	swg := sizedwaitgroup.New(jobs)
	for i := range list {
		d := list[i]
		if d.BankID == 0 || d.UnpackedSize == 0 {
			continue
		}
		swg.Add()
		go func(i int, d archive.Descriptor) {
			defer swg.Done()
			if _, err := banks.Load(&d); err != nil {
				mu.Lock()
				failures = append(failures, verifyFailure{i, err})
				mu.Unlock()
			}
		}(i, d)
	}
	swg.Wait()

	sort.Slice(failures, func(a, b int) bool { return failures[a].index < failures[b].index })
	for _, f := range failures {
		fmt.Fprintf(w, "resource %d: %v\n", f.index, f.err)
	}
	fmt.Fprintf(w, "%d resources checked, %d failed\n", len(list), len(failures))
	return len(failures), nil
}

// packManifest is the TOML input of the pack command:
//
//	[[resource]]
//	kind = "bytecode"
//	rank = 1
//	bank = 1
//	file = "part1.bin"
//
// An entry without a file is written as an empty placeholder record, which
// keeps indices stable.
type packManifest struct {
	NoPack    bool           `toml:"no_pack"`
	Resources []packResource `toml:"resource"`
}

type packResource struct {
	Kind string `toml:"kind"`
	Rank uint8  `toml:"rank"`
	Bank uint8  `toml:"bank"`
	File string `toml:"file"`
}

// packDataSet builds a directory and bank files in out from a manifest.
// Relative file names are resolved against the manifest's directory.
func packDataSet(w io.Writer, manifestPath, out string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", manifestPath, err)
	}
	var m packManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse error in %s: %w", manifestPath, err)
	}

	b := archive.NewBuilder()
	b.NoPack = m.NoPack
	base := filepath.Dir(manifestPath)
	for i, r := range m.Resources {
		kind, err := archive.ParseKind(r.Kind)
		if err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}
		var payload []byte
		if r.File != "" {
			path := r.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(base, path)
			}
			if payload, err = os.ReadFile(path); err != nil {
				return fmt.Errorf("resource %d: %w", i, err)
			}
		}
		if _, err := b.Add(kind, r.Rank, r.Bank, payload); err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(out, archive.DirectoryFile), b.Directory(), 0644); err != nil {
		return err
	}
	ids := make([]int, 0, len(b.Banks))
	for id, bank := range b.Banks {
		if len(bank) == 0 {
			continue
		}
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		bank := b.Banks[uint8(id)]
		if err := os.WriteFile(filepath.Join(out, archive.BankName(uint8(id))), bank, 0644); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", archive.BankName(uint8(id)), humanize.IBytes(uint64(len(bank))))
	}
	fmt.Fprintf(w, "%d resources written to %s\n", len(b.Descriptors), out)
	return nil
}
