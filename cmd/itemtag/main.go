package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/itemtag/internal/api"
	"github.com/erazemk/itemtag/internal/blob"
	"github.com/erazemk/itemtag/internal/codegen"
	"github.com/erazemk/itemtag/internal/config"
	"github.com/erazemk/itemtag/internal/db"
	"github.com/erazemk/itemtag/internal/web"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger installs the default logger. If logPath is non-empty, all
// levels are also appended to that file; the returned cleanup closes it.
func setupLogger(logPath string, stdout, stderr io.Writer) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	cleanup := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stdout, config.Usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		fmt.Fprint(os.Stderr, config.Usage)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Idempotent; creates the items table on first start.
	if err := db.EnsureSchema(ctx, database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	codes, uploads, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("storage ready", "backend", cfg.Storage)

	gen := &codegen.Generator{
		BaseURL: cfg.BaseURL,
		Images:  codes,
		Scale:   cfg.QRScale,
		Border:  cfg.QRBorder,
	}

	handler, err := newHandler(database, gen, uploads, cfg.MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("setting up routes: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// openStores returns the code image and upload stores for the configured
// backend. With S3 both live in one bucket under separate prefixes.
func openStores(ctx context.Context, cfg *config.Config) (blob.Store, blob.Store, error) {
	switch cfg.Storage {
	case config.StorageS3:
		opts := blob.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}

		opts.Prefix = "qr"
		codesS3, err := blob.NewS3(ctx, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("opening code store: %w", err)
		}
		opts.Prefix = "uploads"
		uploadsS3, err := blob.NewS3(ctx, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("opening upload store: %w", err)
		}
		return codesS3, uploadsS3, nil

	default:
		codesDir, err := blob.NewDir(cfg.CodesDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening code store: %w", err)
		}
		uploadsDir, err := blob.NewDir(cfg.UploadsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening upload store: %w", err)
		}
		return codesDir, uploadsDir, nil
	}
}

// newHandler combines the API and page routers behind the request logger.
func newHandler(database *sql.DB, gen *codegen.Generator, uploads blob.Store, maxUploadBytes int64) (http.Handler, error) {
	apiRouter := api.NewRouter(database, gen, uploads, maxUploadBytes)
	webRouter, err := web.NewRouter(database, gen.Images, uploads)
	if err != nil {
		return nil, err
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /download_all", apiRouter)
	mux.Handle("POST /item/{id}", apiRouter)
	mux.Handle("/", webRouter)

	return api.LoggingMiddleware(mux), nil
}
