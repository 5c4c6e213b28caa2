package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/weiihann/plbench/engine"
	"github.com/weiihann/plbench/harness"
	"github.com/weiihann/plbench/runner"
	"github.com/weiihann/plbench/suite"
)

// execFlags are shared by the commands that drive engine pages.
type execFlags struct {
	suiteDir      string
	benchmarks    []string
	enginesConfig string
	engines       []string
	host          string
	query         string
	browser       string
	chromePath    string
	resultID      string
	pollInterval  time.Duration
	timeout       time.Duration
	progress      bool
}

func (f *execFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.suiteDir, "suite", "suite",
		"Directory of benchmark programs, one file per benchmark")
	flags.StringSliceVar(&f.benchmarks, "benchmarks", nil,
		"Benchmarks to run (default: all)")
	flags.StringVar(&f.enginesConfig, "engines-config", "",
		"YAML file listing engines (default: built-in list)")
	flags.StringSliceVar(&f.engines, "engines", nil,
		"Engine labels to run (default: all configured)")
	flags.StringVar(&f.host, "host", engine.DefaultHost,
		"Base URL serving the engine pages")
	flags.StringVar(&f.query, "query", suite.DefaultQuery,
		"Query run against every benchmark")
	flags.StringVar(&f.browser, "browser", "chrome",
		"Page driver: chrome (headless Chrome) or http (no scripts)")
	flags.StringVar(&f.chromePath, "chrome-path", "",
		"Chrome executable (default: search PATH)")
	flags.StringVar(&f.resultID, "result-id", harness.DefaultResultID,
		"Id of the element holding the result")
	flags.DurationVar(&f.pollInterval, "poll-interval", 100*time.Millisecond,
		"Delay between completion checks")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Minute,
		"Per-execution timeout (0 = wait forever)")
	flags.BoolVar(&f.progress, "progress", false,
		"Show a progress bar on stderr")
}

// setup resolves engines and programs and builds the execution client. The
// returned release func must be called once the client is no longer used.
func (f *execFlags) setup(
	ctx context.Context,
	cmd *cobra.Command,
	logger *slog.Logger,
) ([]engine.Descriptor, []suite.Program, *harness.Client, func(), error) {
	cfg := engine.DefaultConfig()

	if f.enginesConfig != "" {
		var err error

		cfg, err = engine.Load(f.enginesConfig)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}

	if cmd.Flags().Changed("host") || f.enginesConfig == "" {
		cfg.Host = f.host
	}

	engines, err := engine.Select(cfg.Engines, f.engines)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	programs, err := suite.Load(f.suiteDir)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	programs, err = suite.Filter(programs, f.benchmarks)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	browser, release, err := newBrowser(ctx, f.browser, f.chromePath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	client := harness.NewClient(browser, harness.Options{
		Host:         cfg.Host,
		ResultID:     f.resultID,
		PollInterval: f.pollInterval,
		Timeout:      f.timeout,
	}, logger)

	return engines, programs, client, release, nil
}

func (f *execFlags) progressBar(total int) runner.Progress {
	if !f.progress {
		return nil
	}

	return progressbar.NewOptions(total, progressbar.OptionSetWriter(os.Stderr))
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		flags        execFlags
		output       string
		noCheckpoint bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every benchmark once on every engine",
		Long: `Run each benchmark program once on each configured engine page and
write a CSV matrix with one row per benchmark and one column per engine.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmarks(cmd, logger, &flags, output, !noCheckpoint)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&output, "output", "results.csv",
		"Results CSV path (overwritten)")
	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false,
		"Write the results only once, at the end of the run")

	return cmd
}

func runBenchmarks(
	cmd *cobra.Command,
	logger *slog.Logger,
	flags *execFlags,
	output string,
	checkpoint bool,
) error {
	ctx := cmd.Context()

	engines, programs, client, release, err := flags.setup(ctx, cmd, logger)
	if err != nil {
		return err
	}
	defer release()

	r := runner.New(runner.Config{
		Engines:    engines,
		Query:      flags.query,
		OutputPath: output,
		Checkpoint: checkpoint,
		Progress:   flags.progressBar(len(engines) * len(programs)),
	}, client, logger)

	m, err := r.Run(ctx, programs)
	if err != nil {
		return err
	}

	if len(m.Timeouts) > 0 {
		logger.WarnContext(ctx, "some engines timed out",
			slog.Int("count", len(m.Timeouts)),
			slog.Any("pairs", m.Timeouts),
		)
	}

	return nil
}

func newBrowser(ctx context.Context, kind, chromePath string) (harness.Browser, func(), error) {
	switch kind {
	case "chrome":
		var opts []chromedp.ExecAllocatorOption
		if chromePath != "" {
			opts = append(opts, chromedp.ExecPath(chromePath))
		}

		b := harness.NewChromeBrowser(ctx, opts...)

		return b, func() { b.Close() }, nil

	case "http":
		return harness.NewHTTPBrowser(nil), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown browser %q (want chrome or http)", kind)
	}
}
