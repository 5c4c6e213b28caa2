package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/plbench/harness"
	"github.com/weiihann/plbench/samples"
	"github.com/weiihann/plbench/suite"
)

// SampleConfig controls repeated sampling of each (benchmark, engine) pair.
type SampleConfig struct {
	// Warmup runs precede measurement and are discarded.
	Warmup int
	// FastWarmup extra runs are added when the first warmup run finished
	// in under FastThreshold.
	FastWarmup    int
	FastThreshold time.Duration
	// At least MinIters and at most MaxIters samples are taken; after
	// MinIters, sampling stops once Target wall time has passed.
	MinIters int
	MaxIters int
	Target   time.Duration
}

// DefaultSampleConfig matches the settings of the in-browser sample
// collector, so documents from either source are comparable.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		Warmup:        1,
		FastWarmup:    20,
		FastThreshold: 100 * time.Millisecond,
		MinIters:      10,
		MaxIters:      1000,
		Target:        5 * time.Second,
	}
}

// Validate rejects inconsistent iteration bounds.
func (c SampleConfig) Validate() error {
	switch {
	case c.MaxIters < 1:
		return errors.New("max iterations must be at least 1")
	case c.MinIters < 0 || c.MinIters > c.MaxIters:
		return fmt.Errorf("min iterations %d outside [0, %d]", c.MinIters, c.MaxIters)
	case c.Warmup < 0 || c.FastWarmup < 0:
		return errors.New("warmup counts must not be negative")
	}

	return nil
}

// Sample collects repeated values for every engine and program and returns
// them as a raw sample document, one solver per engine. Engines report no
// memory, so memory samples stay empty. A timed-out pair yields a record
// without samples.
func (r *Runner) Sample(ctx context.Context, programs []suite.Program, cfg SampleConfig) (*samples.Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sample config: %w", err)
	}

	doc := &samples.Document{}

	for _, e := range r.cfg.Engines {
		solver := samples.Solver{Name: e.Label}

		for _, p := range programs {
			req := harness.Request{Program: p, Query: r.cfg.Query, Engine: e}
			logger := r.logger.With(
				slog.String("benchmark", p.Name),
				slog.String("engine", e.Label),
			)

			values, err := r.samplePair(ctx, req, cfg)

			switch {
			case err == nil:
				logger.InfoContext(ctx, "sampled", slog.Int("samples", len(values)))

			case errors.Is(err, harness.ErrEngineTimeout):
				logger.WarnContext(ctx, "engine timed out while sampling")
				values = nil

			default:
				return nil, fmt.Errorf("sample %s on %s: %w", p.Name, e.Label, err)
			}

			solver.Records = append(solver.Records, samples.Record{
				Name:          p.Name,
				TimeSamples:   values,
				MemorySamples: []float64{},
			})

			r.tick()
		}

		doc.Solvers = append(doc.Solvers, solver)
	}

	return doc, nil
}

func (r *Runner) samplePair(ctx context.Context, req harness.Request, cfg SampleConfig) ([]float64, error) {
	for i := 0; i < cfg.Warmup; i++ {
		res, err := r.exec.Run(ctx, req)
		if err != nil {
			return nil, err
		}

		if i == 0 && res.Elapsed < cfg.FastThreshold {
			for j := 0; j < cfg.FastWarmup; j++ {
				if _, err := r.exec.Run(ctx, req); err != nil {
					return nil, err
				}
			}
		}
	}

	values := make([]float64, 0, cfg.MinIters)
	start := r.cfg.Clock.Now()

	for i := 0; i < cfg.MaxIters; i++ {
		res, err := r.exec.Run(ctx, req)
		if err != nil {
			return nil, err
		}

		values = append(values, float64(res.Value))

		if r.cfg.Clock.Now().Sub(start) > cfg.Target && i+1 >= cfg.MinIters {
			break
		}
	}

	return values, nil
}
