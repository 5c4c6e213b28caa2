package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/weiihann/plbench/poll"
)

const (
	// RunningMarker is shown by an engine page while the program executes.
	RunningMarker = "Running..."
	// DefaultResultID is the id of the element holding the final value.
	DefaultResultID = "result"
)

var (
	// ErrMalformedResult is returned when the result element does not hold
	// an integer.
	ErrMalformedResult = errors.New("malformed engine result")
	// ErrEngineTimeout is returned when an engine page keeps running past
	// the configured timeout.
	ErrEngineTimeout = errors.New("engine timed out")
)

// Options holds parameters shared by every execution.
type Options struct {
	Host     string
	ResultID string
	// PollInterval is the delay between two checks of the running marker.
	PollInterval time.Duration
	// Timeout bounds a single execution; zero waits indefinitely.
	Timeout time.Duration
	Clock   poll.Clock
}

// Client runs benchmark programs on engine pages.
type Client struct {
	browser Browser
	opts    Options
	logger  *slog.Logger
}

// NewClient creates a Client that opens pages with browser.
func NewClient(browser Browser, opts Options, logger *slog.Logger) *Client {
	if opts.ResultID == "" {
		opts.ResultID = DefaultResultID
	}
	if opts.Clock == nil {
		opts.Clock = poll.RealClock{}
	}

	return &Client{browser: browser, opts: opts, logger: logger}
}

// Run executes req and returns the value the engine reported. The page is
// closed before Run returns, whatever the outcome.
func (c *Client) Run(ctx context.Context, req Request) (Result, error) {
	parent := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	logger := c.logger.With(
		slog.String("benchmark", req.Program.Name),
		slog.String("engine", req.Engine.Label),
	)

	url := BuildURL(c.opts.Host, req.Engine.Path, req.Program.Source, req.Query)

	logger.Debug("opening engine page", slog.String("path", req.Engine.Path))

	start := c.opts.Clock.Now()

	page, err := c.browser.Open(ctx, url)
	if err != nil {
		return Result{}, c.failure(ctx, parent, req, "open page", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("failed to close page", slog.String("error", err.Error()))
		}
	}()

	err = poll.Until(ctx, poll.Options{
		Interval: c.opts.PollInterval,
		Timeout:  c.opts.Timeout,
		Clock:    c.opts.Clock,
	}, func(ctx context.Context) (bool, error) {
		src, err := page.Source(ctx)
		if err != nil {
			return false, err
		}

		return !strings.Contains(src, RunningMarker), nil
	})
	if err != nil {
		return Result{}, c.failure(ctx, parent, req, "wait for completion", err)
	}

	text, err := page.Text(ctx, c.opts.ResultID)
	if err != nil {
		return Result{}, c.failure(ctx, parent, req, "read result", err)
	}

	value, err := parseResult(text)
	if err != nil {
		return Result{}, fmt.Errorf("%s on %s: %w", req.Program.Name, req.Engine.Label, err)
	}

	elapsed := c.opts.Clock.Now().Sub(start)

	logger.Debug("engine finished",
		slog.Int64("value", value),
		slog.Duration("wall_time", elapsed),
	)

	return Result{
		Benchmark: req.Program.Name,
		Engine:    req.Engine.Label,
		Value:     value,
		Elapsed:   elapsed,
	}, nil
}

// failure wraps err, turning expiry of the execution context into
// ErrEngineTimeout unless the caller's own context ended. Browsers may
// surface the expiry as any error, so the contexts decide.
func (c *Client) failure(ctx, parent context.Context, req Request, step string, err error) error {
	timedOut := errors.Is(err, poll.ErrTimeout) ||
		(ctx.Err() != nil && parent.Err() == nil)

	if timedOut {
		return fmt.Errorf("%w: %s on %s after %s",
			ErrEngineTimeout, req.Program.Name, req.Engine.Label, c.opts.Timeout)
	}

	return fmt.Errorf("%s: %s on %s: %w", step, req.Program.Name, req.Engine.Label, err)
}

func parseResult(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)

	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedResult, trimmed)
	}

	return value, nil
}
