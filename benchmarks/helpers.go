// Package benchmarks measures the navigator's hot paths: event delivery,
// cache lookups, state machine sends and full navigations.
package benchmarks

import (
	"context"
	"fmt"
	"sync"

	"github.com/comalice/pjaxnav"
	"github.com/comalice/pjaxnav/internal/browser"
	"github.com/comalice/pjaxnav/internal/dom"
)

// Page renders a minimal navigable page for name.
func Page(name string) string {
	return fmt.Sprintf(`<html><head><title>%[1]s</title></head><body id="page-1">
<div id="barba-wrapper"><div class="barba-container" data-namespace="%[1]s"><p>%[1]s</p></div></div>
</body></html>`, name)
}

// MemoryFetcher serves pages from a map without delay.
type MemoryFetcher struct {
	mu    sync.RWMutex
	pages map[string]string
}

func NewMemoryFetcher(base string, names ...string) *MemoryFetcher {
	f := &MemoryFetcher{pages: make(map[string]string, len(names))}
	for _, n := range names {
		f.pages[base+"/"+n] = Page(n)
	}
	return f
}

func (f *MemoryFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page %s", url)
	}
	return p, nil
}

// NewNavigator starts a navigator on page "a" of base with a transition
// that swaps containers as soon as the incoming one is ready.
func NewNavigator(base string, fetcher pjaxnav.Fetcher, opts ...pjaxnav.Option) (*pjaxnav.Navigator, error) {
	doc, err := dom.New(Page("a"), dom.DefaultOptions())
	if err != nil {
		return nil, err
	}
	win := browser.NewSession(base + "/a")
	swap := func() pjaxnav.Transition {
		return pjaxnav.TransitionFunc(func(ctx context.Context, s *pjaxnav.Session) error {
			if _, err := s.WaitIncoming(ctx); err != nil {
				return err
			}
			doc.Unmount(s.Outgoing)
			return nil
		})
	}
	opts = append([]pjaxnav.Option{pjaxnav.WithHistory(win), pjaxnav.WithTransition(swap)}, opts...)
	nav, err := pjaxnav.New(doc, fetcher, win, opts...)
	if err != nil {
		return nil, err
	}
	if err := nav.Start(context.Background()); err != nil {
		return nil, err
	}
	return nav, nil
}
