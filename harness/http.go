package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// HTTPBrowser fetches engine pages with plain HTTP GETs and never executes
// scripts. It suits endpoints that render their progress server side. The
// page is fetched again on every Source call.
type HTTPBrowser struct {
	Client *http.Client
}

// NewHTTPBrowser returns an HTTPBrowser using client, or
// http.DefaultClient when client is nil.
func NewHTTPBrowser(client *http.Client) *HTTPBrowser {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPBrowser{Client: client}
}

// Open performs the first fetch of url.
func (b *HTTPBrowser) Open(ctx context.Context, url string) (Page, error) {
	p := &httpPage{client: b.Client, url: url}
	if _, err := p.Source(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

type httpPage struct {
	client *http.Client
	url    string
	last   string
}

func (p *httpPage) Source(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p.url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", p.url, resp.StatusCode)
	}

	p.last = string(body)

	return p.last, nil
}

// Text reads the element from the most recently fetched document.
func (p *httpPage) Text(_ context.Context, id string) (string, error) {
	doc, err := html.Parse(strings.NewReader(p.last))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	node := findByID(doc, id)
	if node == nil {
		return "", fmt.Errorf("element #%s not found", id)
	}

	var sb strings.Builder
	collectText(node, &sb)

	return sb.String(), nil
}

func (p *httpPage) Close() error { return nil }

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}

	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
