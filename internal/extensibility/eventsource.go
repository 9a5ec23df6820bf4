package extensibility

import (
	"context"
	"log/slog"
	"time"

	"github.com/comalice/pjaxnav"
)

// RequestSource produces URLs to navigate to.
type RequestSource interface {
	Requests() <-chan string
}

// Navigable is the part of the navigator a pump drives.
type Navigable interface {
	GoTo(ctx context.Context, url string) (pjaxnav.Outcome, error)
}

// ChannelRequestSource is a RequestSource backed by a Go channel.
type ChannelRequestSource struct {
	ch chan string
}

// NewChannelRequestSource wraps ch. The channel should be buffered if
// backpressure handling is needed.
func NewChannelRequestSource(ch chan string) *ChannelRequestSource {
	return &ChannelRequestSource{ch: ch}
}

func (s *ChannelRequestSource) Requests() <-chan string {
	return s.ch
}

// TourSource cycles through a list of URLs, one every interval.
type TourSource struct {
	ch     chan string
	urls   []string
	ticker *time.Ticker
	stop   chan struct{}
}

// NewTourSource starts emitting urls every d. With loop false the channel
// is closed after the last URL.
func NewTourSource(urls []string, d time.Duration, loop bool) *TourSource {
	t := &TourSource{
		ch:     make(chan string, 1),
		urls:   append([]string(nil), urls...),
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run(loop)
	return t
}

func (t *TourSource) run(loop bool) {
	defer close(t.ch)
	defer t.ticker.Stop()

	for i := 0; len(t.urls) > 0; i++ {
		if i == len(t.urls) {
			if !loop {
				return
			}
			i = 0
		}
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- t.urls[i]:
			default:
				// drop if full
			}
		case <-t.stop:
			return
		}
	}
}

func (t *TourSource) Requests() <-chan string {
	return t.ch
}

// Stop stops the ticker and closes the channel.
func (t *TourSource) Stop() {
	close(t.stop)
}

// Pump feeds requests from src into nav until the source closes or ctx is
// done.
func Pump(ctx context.Context, src RequestSource, nav Navigable, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case url, ok := <-src.Requests():
			if !ok {
				return nil
			}
			out, err := nav.GoTo(ctx, url)
			if err != nil {
				return err
			}
			logger.Debug("pumped navigation", slog.String("url", url), slog.String("outcome", out.String()))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
