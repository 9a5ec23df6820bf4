// Package transport issues the page requests of the navigator: a GET with a
// fixed timeout and a marker header, resolving with the body on HTTP 200.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout caps a single page request.
	DefaultTimeout = 5 * time.Second
	// DefaultHeader marks requests issued by the navigator.
	DefaultHeader = "X-Barba"
)

// FailureKind classifies a failed fetch.
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureStatus
	FailureTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailureStatus:
		return "status"
	case FailureTimeout:
		return "timeout"
	default:
		return "transport"
	}
}

// FetchError is returned for every failed page request.
type FetchError struct {
	URL        string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FailureStatus:
		return fmt.Sprintf("fetch %s: HTTP code is not 200 (%d)", e.URL, e.StatusCode)
	case FailureTimeout:
		return fmt.Sprintf("fetch %s: timeout exceeded", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher fetches page markup over HTTP.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
	header  string
	tracer  trace.Tracer
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHeader sets the marker header name; its value is always "yes".
func WithHeader(name string) Option {
	return func(f *HTTPFetcher) {
		if name != "" {
			f.header = name
		}
	}
}

func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		header:  DefaultHeader,
		tracer:  otel.Tracer("github.com/comalice/pjaxnav/internal/transport"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url and returns the body on HTTP 200.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, span := f.tracer.Start(ctx, "transport.Fetch", trace.WithAttributes(
		attribute.String("url.full", url),
	))
	defer span.End()

	body, err := f.fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return body, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Kind: FailureTransport, Err: err}
	}
	req.Header.Set(f.header, "yes")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classify(url, err)
	}
	defer resp.Body.Close()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &FetchError{URL: url, Kind: FailureStatus, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(url, err)
	}
	return string(data), nil
}

func classify(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{URL: url, Kind: FailureTimeout, Err: err}
	}
	return &FetchError{URL: url, Kind: FailureTransport, Err: err}
}
