// Package devserver serves a directory of pages for the demo CLI and for
// integration tests. Requests carrying the navigator header are counted and
// logged so a session can be observed from the server side.
package devserver

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

//go:embed site/*.html
var site embed.FS

// Site returns the bundled sample pages.
func Site() fs.FS {
	sub, err := fs.Sub(site, "site")
	if err != nil {
		panic(err)
	}
	return sub
}

// Server serves pages from an fs.FS: "/" maps to index.html, "/about" to
// about.html or about/index.html.
type Server struct {
	echo   *echo.Echo
	pages  fs.FS
	header string
	logger *slog.Logger

	mu     sync.RWMutex
	delays map[string]time.Duration

	pjaxRequests atomic.Int64
	fullRequests atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithHeader sets the header that marks navigator requests.
func WithHeader(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.header = name
		}
	}
}

// New builds the echo instance serving pages.
func New(pages fs.FS, opts ...Option) *Server {
	s := &Server{
		echo:   echo.New(),
		pages:  pages,
		header: "X-Barba",
		logger: slog.Default(),
		delays: make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("page request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Bool("pjax", s.isNavigatorRequest(c.Request())),
			)
			return nil
		},
	}))
	s.echo.GET("/*", s.servePage)
	return s
}

// Handler exposes the server for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve runs on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.echo.Listener = ln
	return s.Start(ln.Addr().String())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// SetDelay slows down responses for urlPath.
func (s *Server) SetDelay(urlPath string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[urlPath] = d
}

// Requests returns the navigator and full-page request counts.
func (s *Server) Requests() (pjax, full int64) {
	return s.pjaxRequests.Load(), s.fullRequests.Load()
}

func (s *Server) isNavigatorRequest(r *http.Request) bool {
	return r != nil && strings.EqualFold(r.Header.Get(s.header), "yes")
}

func (s *Server) servePage(c echo.Context) error {
	r := c.Request()
	if s.isNavigatorRequest(r) {
		s.pjaxRequests.Add(1)
	} else {
		s.fullRequests.Add(1)
	}
	c.Response().Header().Add(echo.HeaderVary, s.header)

	s.mu.RLock()
	delay := s.delays[r.URL.Path]
	s.mu.RUnlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return r.Context().Err()
		}
	}

	body, err := s.lookup(r.URL.Path)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "page not found")
	}
	return c.HTMLBlob(http.StatusOK, body)
}

func (s *Server) lookup(urlPath string) ([]byte, error) {
	clean := strings.Trim(path.Clean("/"+urlPath), "/")
	candidates := []string{"index.html"}
	if clean != "" {
		candidates = []string{clean + ".html", path.Join(clean, "index.html"), clean}
	}
	for _, name := range candidates {
		data, err := fs.ReadFile(s.pages, name)
		if err == nil {
			return data, nil
		}
	}
	return nil, fs.ErrNotExist
}
