// Package testutil provides scripted collaborators for navigator tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
)

// Fetcher serves pages from memory. A gated URL blocks its fetches until
// Release is called.
type Fetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fails map[string]error
	gates map[string]chan struct{}
	calls []string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		pages: make(map[string]string),
		fails: make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

// Page registers markup for url.
func (f *Fetcher) Page(url, markup string) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = markup
	return f
}

// Fail makes fetches of url return err.
func (f *Fetcher) Fail(url string, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[url] = err
	return f
}

// Gate holds fetches of url until Release.
func (f *Fetcher) Gate(url string) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[url] = make(chan struct{})
	return f
}

func (f *Fetcher) Release(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.gates[url]; ok {
		close(g)
		delete(f.gates, url)
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	gate := f.gates[url]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fails[url]; ok {
		return "", err
	}
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: HTTP code is not 200 (404)", url)
	}
	return page, nil
}

// Calls lists fetched URLs in call order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count is the number of fetches of url.
func (f *Fetcher) Count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}
