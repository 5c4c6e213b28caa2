// Package harness drives a single engine page through one execution: it
// opens the page with an encoded program and query, waits for the engine to
// finish and reads back the numeric result.
package harness

import (
	"time"

	"github.com/weiihann/plbench/engine"
	"github.com/weiihann/plbench/suite"
)

// Request is one benchmark program run on one engine.
type Request struct {
	Program suite.Program
	Query   string
	Engine  engine.Descriptor
}

// Result is the value an engine reported for a Request.
type Result struct {
	Benchmark string
	Engine    string
	Value     int64
	// Elapsed is the wall time from opening the page to reading the result.
	Elapsed time.Duration
}
