// Package runner drives every benchmark program through every configured
// engine and collects the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/weiihann/plbench/engine"
	"github.com/weiihann/plbench/harness"
	"github.com/weiihann/plbench/poll"
	"github.com/weiihann/plbench/report"
	"github.com/weiihann/plbench/suite"
)

// Executor runs one request. *harness.Client implements it.
type Executor interface {
	Run(ctx context.Context, req harness.Request) (harness.Result, error)
}

// Progress is notified once per finished (benchmark, engine) pair.
type Progress interface {
	Add(n int) error
}

// Config holds run parameters.
type Config struct {
	// Engines in column order.
	Engines []engine.Descriptor
	// Query defaults to suite.DefaultQuery.
	Query string
	// OutputPath receives the results CSV; empty disables writing.
	OutputPath string
	// Checkpoint rewrites OutputPath after every completed row so that an
	// aborted run keeps the rows it finished.
	Checkpoint bool
	Progress   Progress
	Clock      poll.Clock
}

// Runner executes benchmark suites sequentially.
type Runner struct {
	cfg    Config
	exec   Executor
	logger *slog.Logger
}

// New creates a Runner.
func New(cfg Config, exec Executor, logger *slog.Logger) *Runner {
	if cfg.Query == "" {
		cfg.Query = suite.DefaultQuery
	}
	if cfg.Clock == nil {
		cfg.Clock = poll.RealClock{}
	}

	return &Runner{cfg: cfg, exec: exec, logger: logger}
}

// Run executes every program on every engine, one at a time, and writes the
// results matrix. Programs keep the order they are given in. A timed-out
// pair leaves an empty cell and the run continues; any other failure aborts
// the run and returns the rows completed so far.
func (r *Runner) Run(ctx context.Context, programs []suite.Program) (*Matrix, error) {
	if len(r.cfg.Engines) == 0 {
		return nil, errors.New("no engines configured")
	}

	logger := r.logger.With(slog.String("run_id", uuid.NewString()))

	logger.InfoContext(ctx, "starting run",
		slog.Int("benchmarks", len(programs)),
		slog.Any("engines", engine.Labels(r.cfg.Engines)),
		slog.String("query", r.cfg.Query),
	)

	m := &Matrix{Engines: engine.Labels(r.cfg.Engines)}

	for _, p := range programs {
		row := Row{Benchmark: p.Name, Cells: make([]Cell, 0, len(r.cfg.Engines))}

		for _, e := range r.cfg.Engines {
			res, err := r.exec.Run(ctx, harness.Request{
				Program: p,
				Query:   r.cfg.Query,
				Engine:  e,
			})

			switch {
			case err == nil:
				row.Cells = append(row.Cells, Cell{Value: res.Value, OK: true})

				logger.InfoContext(ctx, "result",
					slog.String("benchmark", p.Name),
					slog.String("engine", e.Label),
					slog.Int64("value", res.Value),
				)

			case errors.Is(err, harness.ErrEngineTimeout):
				row.Cells = append(row.Cells, Cell{})
				m.Timeouts = append(m.Timeouts, Pair{Benchmark: p.Name, Engine: e.Label})

				logger.WarnContext(ctx, "engine timed out",
					slog.String("benchmark", p.Name),
					slog.String("engine", e.Label),
				)

			default:
				return m, fmt.Errorf("run %s on %s: %w", p.Name, e.Label, err)
			}

			r.tick()
		}

		m.Rows = append(m.Rows, row)

		if r.cfg.Checkpoint {
			if err := r.persist(m); err != nil {
				return m, err
			}
		}
	}

	if err := r.persist(m); err != nil {
		return m, err
	}

	logger.InfoContext(ctx, "run complete",
		slog.Int("rows", len(m.Rows)),
		slog.Int("timeouts", len(m.Timeouts)),
		slog.String("output", r.cfg.OutputPath),
	)

	return m, nil
}

func (r *Runner) persist(m *Matrix) error {
	if r.cfg.OutputPath == "" {
		return nil
	}

	if err := report.WriteFile(r.cfg.OutputPath, m.Table()); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	return nil
}

func (r *Runner) tick() {
	if r.cfg.Progress == nil {
		return
	}

	if err := r.cfg.Progress.Add(1); err != nil {
		r.logger.Debug("progress update failed", slog.String("error", err.Error()))
	}
}
