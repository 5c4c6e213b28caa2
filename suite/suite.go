// Package suite loads benchmark programs from a flat directory. Each regular
// file is one benchmark, named after the file without its extension.
package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultQuery is the goal run against every benchmark program.
const DefaultQuery = "top."

// Program is a single benchmark program.
type Program struct {
	Name   string
	Source string
}

// Load reads every regular file in dir, ordered lexicographically by
// filename.
func Load(dir string) ([]Program, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read suite dir %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}

	// os.ReadDir already sorts, but the order is part of the output contract.
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("suite dir %s contains no benchmarks", dir)
	}

	programs := make([]Program, 0, len(files))

	for _, file := range files {
		name := benchmarkName(file)
		if strings.Contains(name, ",") {
			return nil, fmt.Errorf("benchmark %q: name must not contain commas", name)
		}

		src, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("read benchmark %s: %w", file, err)
		}

		programs = append(programs, Program{Name: name, Source: string(src)})
	}

	return programs, nil
}

// benchmarkName strips the extension from file. Leading dots belong to the
// name, so ".pl" is named ".pl" rather than "".
func benchmarkName(file string) string {
	ext := filepath.Ext(strings.TrimLeft(file, "."))
	return strings.TrimSuffix(file, ext)
}

// Filter keeps the named programs in suite order. An empty name list keeps
// everything.
func Filter(programs []Program, names []string) ([]Program, error) {
	if len(names) == 0 {
		return programs, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = false
	}

	kept := make([]Program, 0, len(names))

	for _, p := range programs {
		if _, ok := want[p.Name]; ok {
			want[p.Name] = true
			kept = append(kept, p)
		}
	}

	for _, n := range names {
		if !want[n] {
			return nil, fmt.Errorf("unknown benchmark %q", n)
		}
	}

	return kept, nil
}
