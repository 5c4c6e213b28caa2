package harness

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// ChromeBrowser runs engine pages in headless Chrome. Each page gets its
// own browser process, torn down on Close.
type ChromeBrowser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChromeBrowser prepares a headless Chrome allocator. Extra options are
// appended to chromedp's defaults, e.g. chromedp.ExecPath.
func NewChromeBrowser(ctx context.Context, opts ...chromedp.ExecAllocatorOption) *ChromeBrowser {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], opts...)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	return &ChromeBrowser{allocCtx: allocCtx, cancel: cancel}
}

// Open starts a browser, navigates to url and returns the page.
func (b *ChromeBrowser) Open(ctx context.Context, url string) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	stop := context.AfterFunc(ctx, cancel)

	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		stop()
		cancel()

		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	return &chromePage{ctx: tabCtx, cancel: cancel, stop: stop}, nil
}

// Close releases the allocator.
func (b *ChromeBrowser) Close() error {
	b.cancel()
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
}

func (p *chromePage) Source(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var src string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &src, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}

	return src, nil
}

func (p *chromePage) Text(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	if err := chromedp.Run(p.ctx, chromedp.Text("#"+id, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read #%s: %w", id, err)
	}

	return text, nil
}

func (p *chromePage) Close() error {
	p.stop()
	p.cancel()

	return nil
}
