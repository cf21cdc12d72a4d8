package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/internal/app"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// 初始化日志
	log, err := logger.NewLogger(logger.FromConfig(cfg.Log))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize application", logger.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	documentWorker, err := a.NewWorker(ctx)
	if err != nil {
		log.Error("Failed to create document worker", logger.Error(err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return documentWorker.Start(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Info("Shutting down worker...")
			return documentWorker.Stop()
		case <-documentWorker.Done():
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("document worker stopped unexpectedly")
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("Worker exited with error", logger.Error(err))
		os.Exit(1)
	}
}
