package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/dreammend/internal/app"
	"github.com/markdave123-py/dreammend/internal/config"
	"github.com/markdave123-py/dreammend/internal/logging"
)

func main() {
	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config", slog.Any("err", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer application.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(application.Server.Start)
	g.Go(func() error {
		return application.RunIndexer(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return application.Server.Shutdown(shutdownCtx)
	})

	logger.Info("DreamMend is running; DB connected and bootstrapped.")
	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}
