package runner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/plbench/harness"
	"github.com/weiihann/plbench/suite"
)

func TestSampleStopsAfterTarget(t *testing.T) {
	clock := &tickClock{}
	exec := &nameLength{clock: clock}

	r := New(Config{Engines: testEngines[:1], Clock: clock}, exec, discardLogger())

	// Every run advances the clock by one second.
	doc, err := r.Sample(context.Background(), []suite.Program{{Name: "fib"}}, SampleConfig{
		Warmup:   2,
		MinIters: 3,
		MaxIters: 100,
		Target:   4500 * time.Millisecond,
	})
	require.NoError(t, err)

	require.Len(t, doc.Solvers, 1)
	rec := doc.Solvers[0].Records[0]
	assert.Equal(t, "fib", rec.Name)
	assert.Equal(t, []float64{3, 3, 3, 3, 3}, rec.TimeSamples)
	assert.Empty(t, rec.MemorySamples)
	// 2 warmup runs + 5 samples.
	assert.Len(t, exec.calls, 7)
}

func TestSampleHonoursMinAndMax(t *testing.T) {
	tests := []struct {
		name string
		cfg  SampleConfig
		want int
	}{
		{"min wins over target", SampleConfig{MinIters: 4, MaxIters: 10, Target: 0}, 4},
		{"max caps", SampleConfig{MinIters: 1, MaxIters: 3, Target: time.Hour}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &tickClock{}
			r := New(Config{Engines: testEngines[:1], Clock: clock}, &nameLength{clock: clock}, discardLogger())

			doc, err := r.Sample(context.Background(), []suite.Program{{Name: "nrev"}}, tt.cfg)
			require.NoError(t, err)
			assert.Len(t, doc.Solvers[0].Records[0].TimeSamples, tt.want)
		})
	}
}

func TestSampleFastWarmup(t *testing.T) {
	exec := &nameLength{}
	r := New(Config{Engines: testEngines[:1], Clock: &tickClock{}}, exec, discardLogger())

	_, err := r.Sample(context.Background(), []suite.Program{{Name: "fib"}}, SampleConfig{
		Warmup:        1,
		FastWarmup:    5,
		FastThreshold: 2 * time.Second,
		MinIters:      1,
		MaxIters:      1,
	})
	require.NoError(t, err)

	// 1 warmup + 5 fast warmups + 1 sample.
	assert.Len(t, exec.calls, 7)
}

func TestSampleDocumentShape(t *testing.T) {
	exec := &nameLength{fail: map[Pair]error{
		{"nrev", "B"}: fmt.Errorf("%w: nrev on B", harness.ErrEngineTimeout),
	}}
	r := New(Config{Engines: testEngines, Clock: &tickClock{}}, exec, discardLogger())

	programs := []suite.Program{{Name: "fib"}, {Name: "nrev"}}
	doc, err := r.Sample(context.Background(), programs, SampleConfig{MinIters: 1, MaxIters: 1})
	require.NoError(t, err)

	require.NoError(t, doc.Validate())
	assert.Equal(t, "A", doc.Solvers[0].Name)
	assert.Equal(t, "B", doc.Solvers[1].Name)
	assert.Equal(t, []string{"fib", "nrev"}, doc.Benchmarks())
	assert.Empty(t, doc.Solvers[1].Records[1].TimeSamples)
}

func TestSampleConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultSampleConfig().Validate())
	assert.Error(t, SampleConfig{MaxIters: 0}.Validate())
	assert.Error(t, SampleConfig{MinIters: 5, MaxIters: 2}.Validate())
	assert.Error(t, SampleConfig{MaxIters: 1, Warmup: -1}.Validate())
}
