// Command pjaxnav drives a headless navigator from a small REPL, optionally
// against the bundled dev site.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/pjaxnav/internal/devserver"
	"github.com/comalice/pjaxnav/internal/platform/config"
	"github.com/comalice/pjaxnav/internal/platform/otel"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		exitf("config: %v", err)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, cfg.OTelEndpoint, "pjaxnav")
	if err != nil {
		exitf("otel: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("otel shutdown", slog.Any("error", err))
		}
	}()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("pjaxnav", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	startURL := cfg.StartURL
	if cfg.Addr != "" {
		ln, err := net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		srv := devserver.New(devserver.Site(),
			devserver.WithLogger(logger),
			devserver.WithHeader(cfg.RequestHeader),
		)
		g.Go(func() error { return srv.Serve(ln) })
		g.Go(func() error {
			<-ctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			return srv.Shutdown(sctx)
		})
		if startURL == "" {
			startURL = "http://" + ln.Addr().String() + "/"
		}
		logger.Info("dev site listening", slog.String("addr", ln.Addr().String()))
	}
	if startURL == "" {
		return errors.New("no start url: set PJAXNAV_START_URL or PJAXNAV_ADDR")
	}

	g.Go(func() error {
		defer cancel()
		sh, err := newShell(ctx, cfg, startURL, logger, os.Stdout)
		if err != nil {
			return err
		}
		defer sh.Close()
		return sh.Run(ctx, os.Stdin)
	})
	return g.Wait()
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
