package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weiihann/plbench/aggregate"
	"github.com/weiihann/plbench/report"
	"github.com/weiihann/plbench/stats"
)

func newSummarizeCmd(logger *slog.Logger) *cobra.Command {
	var (
		resultsDir  string
		outDir      string
		statistic   string
		title       string
		printTables bool
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Reduce raw sample documents to time and memory CSV tables",
		Long: `Read every raw sample document (*.json) in the results directory and
write <name>.time.csv and <name>.memory.csv to the output directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			stat, err := stats.Parse(statistic)
			if err != nil {
				return err
			}

			opts := aggregate.Options{Statistic: stat, Title: title}

			outputs, err := aggregate.Process(ctx, resultsDir, outDir, opts, logger)
			if err != nil {
				return err
			}

			if !printTables {
				return nil
			}

			for _, out := range outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s: time\n", out.Document)
				report.Render(cmd.OutOrStdout(), out.TimeTable, report.UnitMillis)

				if len(out.MemoryTable.Header) > 1 {
					fmt.Fprintf(cmd.OutOrStdout(), "\n%s: memory\n", out.Document)
					report.Render(cmd.OutOrStdout(), out.MemoryTable, report.UnitBytes)
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&resultsDir, "results-dir", filepath.Join("bench", "results"),
		"Directory of raw sample documents")
	flags.StringVar(&outDir, "out-dir", "data",
		"Directory receiving the CSV tables (created if absent)")
	flags.StringVar(&statistic, "statistic", string(stats.StatMedianIQR),
		"Time statistic: mean, median, median+iqr")
	flags.StringVar(&title, "title", aggregate.DefaultTitle,
		"Title of the benchmark column")
	flags.BoolVar(&printTables, "print", false,
		"Also print the tables to stdout")

	return cmd
}
