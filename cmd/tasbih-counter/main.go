package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tasbih-counter/internal/app"
	"tasbih-counter/internal/config"
)

func main() {
	// Flags
	addr := flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	once := flag.Bool("once", false, "Run a single mirror pass to MySQL and exit")
	export := flag.String("export", "", "Fetch entries, write them to this .xlsx file and exit")
	mirrorInterval := flag.Duration("mirror-interval", 15*time.Minute, "Interval between mirror passes when MYSQL_DSN is set")
	keys := flag.Bool("keys", false, "Read counter keys from stdin, one per line (space or + increments, - decrements)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	// Logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	// App
	application, err := app.New(logger, cfg)
	if err != nil {
		logger.Error("failed to initialize app", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer application.Close()

	// Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *export != "" {
		if err := exportTo(ctx, application, *export); err != nil {
			logger.Error("export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("export completed", slog.String("file", *export))
		return
	}

	if *once {
		if err := application.MirrorOnce(ctx); err != nil {
			logger.Error("mirror failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("mirror completed")
		return
	}

	// Initial load; a failure only leaves the total at zero
	_ = application.Refresh(ctx)

	if *keys {
		go application.Session().ListenKeys(ctx, readKeys(ctx, os.Stdin))
	}

	if application.HasMirror() {
		go runMirror(ctx, application, *mirrorInterval, logger)
	}

	srv := application.HTTPServer(cfg.HTTP.Addr)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}
}

// runMirror copies remote entries to MySQL right away and then on every tick.
func runMirror(ctx context.Context, application *app.App, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("starting periodic mirror", slog.Duration("interval", interval))
	if err := application.MirrorOnce(ctx); err != nil {
		logger.Error("initial mirror failed", slog.String("error", err.Error()))
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := application.MirrorOnce(ctx); err != nil {
				logger.Error("periodic mirror failed", slog.String("error", err.Error()))
			}
		}
	}
}

func exportTo(ctx context.Context, application *app.App, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := application.Export(ctx, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readKeys turns stdin lines into key presses. An empty line counts as space,
// so pressing Enter alone increments.
func readKeys(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := sc.Text()
			k := strings.TrimSpace(line)
			if k == "" {
				k = " "
			}
			for _, key := range keySequence(k) {
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// keySequence splits a line like "+++-" into individual keys.
func keySequence(line string) []string {
	if line == " " {
		return []string{" "}
	}
	keys := make([]string, 0, len(line))
	for _, r := range line {
		keys = append(keys, string(r))
	}
	return keys
}
