package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/plbench/engine"
	"github.com/weiihann/plbench/harness"
	"github.com/weiihann/plbench/suite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testEngines = []engine.Descriptor{
	{Label: "A", Path: "/a.html"},
	{Label: "B", Path: "/b.html"},
}

// nameLength answers every request with the length of the benchmark name,
// optionally failing selected pairs.
type nameLength struct {
	fail  map[Pair]error
	delay map[string]time.Duration
	clock *tickClock

	calls []Pair
}

func (n *nameLength) Run(_ context.Context, req harness.Request) (harness.Result, error) {
	pair := Pair{Benchmark: req.Program.Name, Engine: req.Engine.Label}
	n.calls = append(n.calls, pair)

	if n.clock != nil {
		n.clock.advance(time.Second)
	}

	if err := n.fail[pair]; err != nil {
		return harness.Result{}, err
	}

	if d, ok := n.delay[req.Program.Name]; ok {
		time.Sleep(d)
	}

	return harness.Result{
		Benchmark: pair.Benchmark,
		Engine:    pair.Engine,
		Value:     int64(len(req.Program.Name)),
		Elapsed:   time.Second,
	}, nil
}

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *tickClock) After(d time.Duration) <-chan time.Time {
	c.advance(d)

	ch := make(chan time.Time, 1)
	ch <- c.Now()

	return ch
}

type countingProgress struct{ n int }

func (p *countingProgress) Add(n int) error {
	p.n += n
	return nil
}

func loadScenarioSuite(t *testing.T) []suite.Program {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nrev.pl"), []byte("nrev"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fib.pl"), []byte("fib"), 0o644))

	programs, err := suite.Load(dir)
	require.NoError(t, err)

	return programs
}

func TestRunScenario(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	progress := &countingProgress{}

	r := New(Config{
		Engines:    testEngines,
		OutputPath: out,
		Progress:   progress,
	}, &nameLength{}, discardLogger())

	m, err := r.Run(context.Background(), loadScenarioSuite(t))
	require.NoError(t, err)

	assert.Len(t, m.Table().Header, 1+len(testEngines))
	assert.Equal(t, 4, progress.n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "benchmark,A,B\nfib,3,3\nnrev,4,4", string(data))
}

func TestRunOrderIsStructural(t *testing.T) {
	// The first benchmark is slow; rows must still follow suite order.
	exec := &nameLength{delay: map[string]time.Duration{"fib": 10 * time.Millisecond}}
	r := New(Config{Engines: testEngines}, exec, discardLogger())

	m, err := r.Run(context.Background(), loadScenarioSuite(t))
	require.NoError(t, err)

	require.Len(t, m.Rows, 2)
	assert.Equal(t, "fib", m.Rows[0].Benchmark)
	assert.Equal(t, "nrev", m.Rows[1].Benchmark)
	assert.Equal(t, []Pair{
		{"fib", "A"}, {"fib", "B"}, {"nrev", "A"}, {"nrev", "B"},
	}, exec.calls)
}

func TestRunTimeoutLeavesEmptyCell(t *testing.T) {
	exec := &nameLength{fail: map[Pair]error{
		{"fib", "B"}: fmt.Errorf("%w: fib on B", harness.ErrEngineTimeout),
	}}
	out := filepath.Join(t.TempDir(), "results.csv")

	r := New(Config{Engines: testEngines, OutputPath: out}, exec, discardLogger())

	m, err := r.Run(context.Background(), loadScenarioSuite(t))
	require.NoError(t, err)

	assert.Equal(t, []Pair{{"fib", "B"}}, m.Timeouts)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "benchmark,A,B\nfib,3,\nnrev,4,4", string(data))
}

func TestRunFatalKeepsCheckpoint(t *testing.T) {
	exec := &nameLength{fail: map[Pair]error{
		{"nrev", "A"}: fmt.Errorf("%w: \"oops\"", harness.ErrMalformedResult),
	}}
	out := filepath.Join(t.TempDir(), "results.csv")

	r := New(Config{Engines: testEngines, OutputPath: out, Checkpoint: true}, exec, discardLogger())

	m, err := r.Run(context.Background(), loadScenarioSuite(t))
	require.ErrorIs(t, err, harness.ErrMalformedResult)
	assert.Len(t, m.Rows, 1)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "benchmark,A,B\nfib,3,3", string(data))
}

func TestRunFatalWithoutCheckpointWritesNothing(t *testing.T) {
	exec := &nameLength{fail: map[Pair]error{
		{"nrev", "A"}: errors.New("browser crashed"),
	}}
	out := filepath.Join(t.TempDir(), "results.csv")

	r := New(Config{Engines: testEngines, OutputPath: out}, exec, discardLogger())

	_, err := r.Run(context.Background(), loadScenarioSuite(t))
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunNoEngines(t *testing.T) {
	r := New(Config{}, &nameLength{}, discardLogger())

	_, err := r.Run(context.Background(), loadScenarioSuite(t))
	assert.Error(t, err)
}

func TestRunEndToEndOverHTTP(t *testing.T) {
	var mu sync.Mutex
	polls := make(map[string]int)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		program, err := harness.Decode(r.URL.Query().Get("program"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		key := r.URL.Path + "|" + program

		mu.Lock()
		polls[key]++
		n := polls[key]
		mu.Unlock()

		if n < 3 {
			fmt.Fprint(w, `<html><body>Running...</body></html>`)
			return
		}

		fmt.Fprintf(w, `<html><body><span id="result">%d</span></body></html>`, len(program))
	}))
	defer srv.Close()

	client := harness.NewClient(harness.NewHTTPBrowser(srv.Client()), harness.Options{
		Host:         srv.URL,
		PollInterval: time.Millisecond,
		Timeout:      5 * time.Second,
	}, discardLogger())

	out := filepath.Join(t.TempDir(), "results.csv")
	r := New(Config{Engines: testEngines, OutputPath: out, Checkpoint: true}, client, discardLogger())

	_, err := r.Run(context.Background(), loadScenarioSuite(t))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "benchmark,A,B\nfib,3,3\nnrev,4,4", string(data))
}
