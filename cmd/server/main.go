package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"zkid/internal/platform/config"
	"zkid/internal/platform/httpserver"
	"zkid/internal/platform/logger"
)

// main wires dependencies, serves HTTP and runs the audit worker until a
// signal arrives. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log, newRegistry())
	if err != nil {
		return err
	}
	defer app.close()

	srv := httpserver.New(cfg.Server, app.router)
	log.Info("starting zkid", "addr", cfg.Server.Addr, "storage", app.storage)
	return serve(ctx, srv, app.audit, cfg.Server.ShutdownTimeout, log)
}

type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type worker interface {
	Run(ctx context.Context) error
}

// serve runs srv and the background worker until ctx ends or the server
// fails. The worker is stopped only after Shutdown has drained in-flight
// requests, so events they emit still reach it.
func serve(ctx context.Context, srv server, w worker, shutdownTimeout time.Duration, log *slog.Logger) error {
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return w.Run(workerCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopWorker()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
