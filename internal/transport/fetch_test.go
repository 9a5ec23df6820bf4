package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/comalice/pjaxnav/internal/devserver"
)

func newSite(t *testing.T) (*devserver.Server, *httptest.Server) {
	t.Helper()
	srv := devserver.New(fstest.MapFS{
		"index.html": {Data: []byte("<html><head><title>Home</title></head></html>")},
		"slow.html":  {Data: []byte("<html></html>")},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestFetch_Success(t *testing.T) {
	srv, ts := newSite(t)
	f := NewHTTPFetcher(WithClient(ts.Client()))

	body, err := f.Fetch(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(body, "<title>Home</title>") {
		t.Errorf("unexpected body %q", body)
	}
	if pjax, full := srv.Requests(); pjax != 1 || full != 0 {
		t.Errorf("requests pjax=%d full=%d, want the marker header on every fetch", pjax, full)
	}
}

func TestFetch_SendsHeader(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	f := NewHTTPFetcher(WithHeader("X-Custom"))
	if _, err := f.Fetch(context.Background(), ts.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "yes" {
		t.Errorf("header value = %q, want yes", got)
	}
}

func TestFetch_StatusFailure(t *testing.T) {
	_, ts := newSite(t)
	f := NewHTTPFetcher()

	_, err := f.Fetch(context.Background(), ts.URL+"/missing")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Kind != FailureStatus || fe.StatusCode != http.StatusNotFound {
		t.Errorf("got kind=%s status=%d", fe.Kind, fe.StatusCode)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv, ts := newSite(t)
	srv.SetDelay("/slow", time.Second)
	f := NewHTTPFetcher(WithTimeout(30 * time.Millisecond))

	start := time.Now()
	_, err := f.Fetch(context.Background(), ts.URL+"/slow")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != FailureTimeout {
		t.Fatalf("err = %v, want timeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("timeout error should unwrap to DeadlineExceeded")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("timeout not honored")
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	f := NewHTTPFetcher()
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:0/")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != FailureTransport {
		t.Fatalf("err = %v, want transport failure", err)
	}
}
