package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/project-assistant/api/handlers"
	"github.com/feichai0017/project-assistant/api/routes"
	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/internal/app"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(logger.FromConfig(cfg.Log))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", logger.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("Failed to close resources", logger.Error(err))
		}
	}()

	if cfg.Worker.Embedded {
		w, err := a.NewWorker(ctx)
		if err != nil {
			log.Fatal("Failed to create embedded worker", logger.Error(err))
		}
		if err := w.Start(ctx); err != nil {
			log.Fatal("Failed to start embedded worker", logger.Error(err))
		}
		defer w.Stop()
	}

	gin.SetMode(cfg.App.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	h := handlers.NewHandlers(a.Documents, a.Chats, cfg.App.Version, log.Named("http"))
	routes.SetupRoutes(r, h, cfg, log.Named("access"))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
