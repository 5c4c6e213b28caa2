package runner

import (
	"strconv"

	"github.com/weiihann/plbench/report"
)

// HeaderTitle heads the benchmark column of the results matrix.
const HeaderTitle = "benchmark"

// Cell is one engine's value for one benchmark. OK is false when the engine
// produced no value, e.g. because it timed out.
type Cell struct {
	Value int64
	OK    bool
}

// Row holds one benchmark's values in engine order.
type Row struct {
	Benchmark string
	Cells     []Cell
}

// Pair identifies a benchmark run on an engine.
type Pair struct {
	Benchmark string
	Engine    string
}

// Matrix is the single-sample results table.
type Matrix struct {
	Engines  []string
	Rows     []Row
	Timeouts []Pair
}

// Table converts m to a report table with a "benchmark" header cell
// followed by the engine labels. Missing values are empty cells.
func (m *Matrix) Table() *report.Table {
	t := &report.Table{
		Header: append([]string{HeaderTitle}, m.Engines...),
		Rows:   make([][]string, len(m.Rows)),
	}

	for i, row := range m.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		cells = append(cells, row.Benchmark)

		for _, c := range row.Cells {
			if c.OK {
				cells = append(cells, strconv.FormatInt(c.Value, 10))
			} else {
				cells = append(cells, "")
			}
		}

		t.Rows[i] = cells
	}

	return t
}
