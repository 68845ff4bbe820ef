package lesson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxResourceBytes = 4 << 20

// HTTPLoader fetches bundles from a static resource server.
type HTTPLoader struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLoader(baseURL string, client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPLoader{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Load fetches the five documents concurrently. The first failure cancels
// the others and fails the whole load.
func (l *HTTPLoader) Load(ctx context.Context, slug string) (*Bundle, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	raws := make([][]byte, len(resourceNames))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range resourceNames {
		g.Go(func() error {
			raw, err := l.fetch(gctx, resourcePath(slug, name))
			if err != nil {
				return err
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make(map[string][]byte, len(resourceNames))
	for i, name := range resourceNames {
		docs[name] = raws[i]
	}
	return decodeBundle(slug, docs)
}

// List reads the course index document.
func (l *HTTPLoader) List(ctx context.Context) ([]Summary, error) {
	raw, err := l.fetch(ctx, "index.json")
	if err != nil {
		return nil, err
	}
	var out []Summary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ResourceError{Path: "index.json", Err: err}
	}
	sortSummaries(out)
	return out, nil
}

func (l *HTTPLoader) fetch(ctx context.Context, p string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+p, nil)
	if err != nil {
		return nil, &ResourceError{Path: p, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &ResourceError{Path: p, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &ResourceError{Path: p, Err: ErrNotFound}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ResourceError{Path: p, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceBytes))
	if err != nil {
		return nil, &ResourceError{Path: p, Err: err}
	}
	return raw, nil
}
