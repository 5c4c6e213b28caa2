package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weiihann/plbench/runner"
)

func newSampleCmd(logger *slog.Logger) *cobra.Command {
	var (
		flags execFlags
		out   string
	)

	cfg := runner.DefaultSampleConfig()

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Collect repeated samples into a raw result document",
		Long: `Run each benchmark repeatedly on each engine page and write the values as
a raw sample document (solver -> benchmark records) that "summarize" reads.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			engines, programs, client, release, err := flags.setup(ctx, cmd, logger)
			if err != nil {
				return err
			}
			defer release()

			r := runner.New(runner.Config{
				Engines:  engines,
				Query:    flags.query,
				Progress: flags.progressBar(len(engines) * len(programs)),
			}, client, logger)

			doc, err := r.Sample(ctx, programs, cfg)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}

			if err := doc.Encode(f); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", out, err)
			}

			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			logger.InfoContext(ctx, "samples written", slog.String("path", out))

			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&out, "out", filepath.Join("bench", "results", "results.json"),
		"Raw sample document to write")
	cmd.Flags().IntVar(&cfg.Warmup, "warmup", cfg.Warmup,
		"Unmeasured runs before sampling")
	cmd.Flags().IntVar(&cfg.FastWarmup, "fast-warmup", cfg.FastWarmup,
		"Extra warmup runs when the first one is faster than --fast-threshold")
	cmd.Flags().DurationVar(&cfg.FastThreshold, "fast-threshold", cfg.FastThreshold,
		"Wall time under which a benchmark gets extra warmup runs")
	cmd.Flags().IntVar(&cfg.MinIters, "min-iters", cfg.MinIters,
		"Minimum samples per benchmark and engine")
	cmd.Flags().IntVar(&cfg.MaxIters, "max-iters", cfg.MaxIters,
		"Maximum samples per benchmark and engine")
	cmd.Flags().DurationVar(&cfg.Target, "target", cfg.Target,
		"Sampling time per benchmark and engine once --min-iters is reached")

	return cmd
}
