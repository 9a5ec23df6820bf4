package core

import (
	"context"
	"sync"

	"github.com/comalice/pjaxnav/internal/primitives"
)

// Response is the single-resolution result of one page fetch. Any number of
// goroutines may wait on it.
type Response struct {
	once sync.Once
	done chan struct{}
	body string
	err  error
}

func NewResponse() *Response {
	return &Response{done: make(chan struct{})}
}

// Resolve settles the response. Only the first call has an effect.
func (r *Response) Resolve(body string, err error) {
	r.once.Do(func() {
		r.body = body
		r.err = err
		close(r.done)
	})
}

// Done is closed once the response is settled.
func (r *Response) Done() <-chan struct{} {
	return r.done
}

// Settled reports whether Resolve has been called.
func (r *Response) Settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the response settles or ctx is done.
func (r *Response) Wait(ctx context.Context) (string, error) {
	select {
	case <-r.done:
		return r.body, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Cache maps normalized URLs to responses. Rejected responses stay cached.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Response
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Response)}
}

// Get returns the response for url, or nil on a miss.
func (c *Cache) Get(url string) *Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[primitives.CleanURL(url)]
}

// Set registers resp under url and returns the response actually stored. An
// existing response that has not settled yet wins over resp.
func (c *Cache) Set(url string, resp *Response) *Response {
	key := primitives.CleanURL(url)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok && !existing.Settled() {
		return existing
	}
	c.entries[key] = resp
	return resp
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Response)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
