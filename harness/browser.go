package harness

import "context"

// Browser opens engine pages. Every Open call yields an independent page
// that the caller must Close.
type Browser interface {
	Open(ctx context.Context, url string) (Page, error)
}

// Page is an opened engine page.
type Page interface {
	// Source returns the current rendered document.
	Source(ctx context.Context) (string, error)
	// Text returns the text content of the element with the given id.
	Text(ctx context.Context, id string) (string, error)
	Close() error
}
