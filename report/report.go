// Package report renders benchmark tables as CSV for a typesetting pipeline
// and as console tables for humans.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Table is a header row followed by data rows of preformatted cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable returns a table whose first column is titled title and lists
// names, one row per name.
func NewTable(title string, names []string) *Table {
	t := &Table{Header: []string{title}, Rows: make([][]string, len(names))}
	for i, n := range names {
		t.Rows[i] = []string{n}
	}

	return t
}

// All returns the header followed by the rows.
func (t *Table) All() [][]string {
	all := make([][]string, 0, len(t.Rows)+1)
	all = append(all, t.Header)

	return append(all, t.Rows...)
}

// Escape prefixes every underscore with a backslash.
func Escape(s string) string {
	return strings.ReplaceAll(s, "_", `\_`)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	return strings.ReplaceAll(s, `\_`, "_")
}

// Format joins rows with newlines and cells with commas, then escapes
// underscores in the whole text. Cells are not quoted, so they must not
// contain commas. There is no trailing newline.
func Format(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, ",")
	}

	return Escape(strings.Join(lines, "\n"))
}

// SplitRow recovers the cells of one line produced by Format.
func SplitRow(line string) []string {
	return strings.Split(Unescape(line), ",")
}

// WriteCSV writes t to w in the Format layout.
func WriteCSV(w io.Writer, t *Table) error {
	_, err := io.WriteString(w, Format(t.All()))
	return err
}

// WriteFile replaces the file at path with t, creating the parent
// directory if needed. The file is written to a temporary name first so a
// reader never sees a partial table.
func WriteFile(path string, t *Table) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename to %s: %w", path, err)
	}

	return nil
}

// FormatValue renders v in its shortest decimal form. NaN renders as an
// empty cell.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Unit tells Render how to humanize numeric cells.
type Unit int

const (
	UnitNone Unit = iota
	UnitMillis
	UnitBytes
)

// Render writes t as a console table. Numeric cells outside the first
// column are humanized according to unit.
func Render(w io.Writer, t *Table, unit Unit) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetHeader(t.Header)

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell
			if i > 0 {
				cells[i] = humanize(cell, unit)
			}
		}

		table.Append(cells)
	}

	table.Render()
}

func humanize(cell string, unit Unit) string {
	if cell == "" {
		return "-"
	}

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return cell
	}

	switch unit {
	case UnitMillis:
		return formatMs(v)
	case UnitBytes:
		return formatBytes(v)
	default:
		return cell
	}
}

func formatMs(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2fms", ms)
	}

	return fmt.Sprintf("%.2fs", ms/1000)
}

func formatBytes(b float64) string {
	if b <= 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := b
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
