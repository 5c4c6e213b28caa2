// Package samples reads and writes raw sample documents: one JSON object per
// experiment, mapping each solver to its per-benchmark sample arrays.
//
// Solver order in the document is significant (it becomes column order), so
// documents are decoded token by token instead of into a map.
package samples

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record holds the repeated measurements of one benchmark on one solver.
// An empty MemorySamples means memory was not measured.
type Record struct {
	Name          string    `json:"name"`
	TimeSamples   []float64 `json:"timeSamples"`
	MemorySamples []float64 `json:"memorySamples"`
}

// HasMemory reports whether the record carries memory samples.
func (r Record) HasMemory() bool {
	return len(r.MemorySamples) > 0
}

// Solver is one top-level entry of a document.
type Solver struct {
	Name    string
	Records []Record
}

// Document is a decoded raw sample document.
type Document struct {
	// Name is the file name without its .json extension, empty when the
	// document was not read from a file.
	Name    string
	Solvers []Solver
}

// Decode parses a document from r, keeping solvers in document order.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("document must be a JSON object, got %v", tok)
	}

	doc := &Document{}
	seen := make(map[string]struct{})

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read solver key: %w", err)
		}

		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate solver %q", name)
		}
		seen[name] = struct{}{}

		var records []Record
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode solver %q: %w", name, err)
		}

		doc.Solvers = append(doc.Solvers, Solver{Name: name, Records: records})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read document end: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after document")
	}

	return doc, nil
}

// Load decodes the document stored at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc.Name = strings.TrimSuffix(filepath.Base(path), ".json")

	return doc, nil
}

// Discover returns the .json files in dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read results dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(paths)

	return paths, nil
}

// Encode writes doc as a JSON object with solvers in order. Nil sample
// arrays are written as empty arrays.
func (d *Document) Encode(w io.Writer) error {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, s := range d.Solvers {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(s.Name)
		if err != nil {
			return fmt.Errorf("encode solver name: %w", err)
		}

		records := make([]Record, len(s.Records))
		for j, r := range s.Records {
			if r.TimeSamples == nil {
				r.TimeSamples = []float64{}
			}
			if r.MemorySamples == nil {
				r.MemorySamples = []float64{}
			}
			records[j] = r
		}

		value, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("encode solver %q: %w", s.Name, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())

	return err
}

// ErrEmptyDocument is returned by Validate for a document without solvers.
var ErrEmptyDocument = errors.New("document has no solvers")

// AlignmentError reports a solver whose records do not line up with the
// first solver's records.
type AlignmentError struct {
	Reference string
	Solver    string
	Index     int
	// Want and Got are benchmark names at Index; empty when the list ended.
	Want string
	Got  string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("solver %q record %d: benchmark %s, want %s as in solver %q",
		e.Solver, e.Index, quoteOrNone(e.Got), quoteOrNone(e.Want), e.Reference)
}

func quoteOrNone(s string) string {
	if s == "" {
		return "<none>"
	}

	return fmt.Sprintf("%q", s)
}

// Validate checks that every solver lists the same benchmarks in the same
// order as the first one.
func (d *Document) Validate() error {
	if len(d.Solvers) == 0 {
		return ErrEmptyDocument
	}

	ref := d.Solvers[0]

	for _, s := range d.Solvers[1:] {
		n := max(len(ref.Records), len(s.Records))

		for i := 0; i < n; i++ {
			var want, got string
			if i < len(ref.Records) {
				want = ref.Records[i].Name
			}
			if i < len(s.Records) {
				got = s.Records[i].Name
			}

			if want != got || i >= len(ref.Records) || i >= len(s.Records) {
				return &AlignmentError{
					Reference: ref.Name,
					Solver:    s.Name,
					Index:     i,
					Want:      want,
					Got:       got,
				}
			}
		}
	}

	return nil
}

// Benchmarks returns the benchmark names in the order of the first solver.
func (d *Document) Benchmarks() []string {
	if len(d.Solvers) == 0 {
		return nil
	}

	names := make([]string, len(d.Solvers[0].Records))
	for i, r := range d.Solvers[0].Records {
		names[i] = r.Name
	}

	return names
}
