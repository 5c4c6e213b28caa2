// Package aggregate turns raw sample documents into per-solver summary
// tables of run time and memory.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/weiihann/plbench/report"
	"github.com/weiihann/plbench/samples"
	"github.com/weiihann/plbench/stats"
)

// DefaultTitle heads the benchmark column of summary tables.
const DefaultTitle = "Benchmark"

// Options controls table construction.
type Options struct {
	// Statistic summarizes time samples. Memory always uses the median.
	Statistic stats.Statistic
	Title     string
}

func (o Options) withDefaults() Options {
	if o.Statistic == "" {
		o.Statistic = stats.StatMedianIQR
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}

	return o
}

// Build computes the time and memory tables of doc. Rows follow the first
// solver's benchmark order and columns follow solver order. A solver appears
// in the memory table only if its first record has memory samples.
func Build(doc *samples.Document, opts Options) (timeTable, memTable *report.Table, err error) {
	opts = opts.withDefaults()

	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}

	names := doc.Benchmarks()
	timeTable = report.NewTable(opts.Title, names)
	memTable = report.NewTable(opts.Title, names)

	for _, s := range doc.Solvers {
		timeTable.Header = append(timeTable.Header, opts.Statistic.Columns(s.Name)...)

		withMemory := len(s.Records) > 0 && s.Records[0].HasMemory()
		if withMemory {
			memTable.Header = append(memTable.Header, s.Name)
		}

		for i, r := range s.Records {
			for _, v := range opts.Statistic.Summarize(r.TimeSamples) {
				timeTable.Rows[i] = append(timeTable.Rows[i], report.FormatValue(v))
			}

			if withMemory {
				memTable.Rows[i] = append(memTable.Rows[i], report.FormatValue(stats.Median(r.MemorySamples)))
			}
		}
	}

	return timeTable, memTable, nil
}

// Output names the files written for one document and holds the tables
// written to them.
type Output struct {
	Document string
	Time     string
	Memory   string

	TimeTable   *report.Table
	MemoryTable *report.Table
}

// Paths returns where the tables of the document named name are written.
func Paths(outDir, name string) Output {
	return Output{
		Document: name,
		Time:     filepath.Join(outDir, name+".time.csv"),
		Memory:   filepath.Join(outDir, name+".memory.csv"),
	}
}

// Process summarizes every document in inDir into outDir, which is created
// if absent. Documents are handled one at a time in name order.
func Process(ctx context.Context, inDir, outDir string, opts Options, logger *slog.Logger) ([]Output, error) {
	paths, err := samples.Discover(inDir)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		logger.WarnContext(ctx, "no result documents found", slog.String("dir", inDir))
		return nil, nil
	}

	outputs := make([]Output, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		out, err := processOne(path, outDir, opts)
		if err != nil {
			return outputs, err
		}

		logger.InfoContext(ctx, "document summarized",
			slog.String("document", out.Document),
			slog.String("time_csv", out.Time),
			slog.String("memory_csv", out.Memory),
		)

		outputs = append(outputs, out)
	}

	return outputs, nil
}

func processOne(path, outDir string, opts Options) (Output, error) {
	doc, err := samples.Load(path)
	if err != nil {
		return Output{}, err
	}

	timeTable, memTable, err := Build(doc, opts)
	if err != nil {
		return Output{}, fmt.Errorf("summarize %s: %w", path, err)
	}

	out := Paths(outDir, doc.Name)
	out.TimeTable = timeTable
	out.MemoryTable = memTable

	if err := report.WriteFile(out.Time, timeTable); err != nil {
		return Output{}, err
	}

	if err := report.WriteFile(out.Memory, memTable); err != nil {
		return Output{}, err
	}

	return out, nil
}
