// Package app builds every client and service from the configuration and
// owns their lifetime.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/internal/agent"
	"github.com/feichai0017/project-assistant/internal/agent/ingest"
	"github.com/feichai0017/project-assistant/internal/agent/llm"
	"github.com/feichai0017/project-assistant/internal/cache"
	"github.com/feichai0017/project-assistant/internal/platform/database"
	redisClient "github.com/feichai0017/project-assistant/internal/platform/redis"
	"github.com/feichai0017/project-assistant/internal/repository"
	"github.com/feichai0017/project-assistant/internal/service/chat"
	"github.com/feichai0017/project-assistant/internal/service/document"
	"github.com/feichai0017/project-assistant/pkg/logger"
	"github.com/feichai0017/project-assistant/pkg/queue"
	"github.com/feichai0017/project-assistant/pkg/storage"
	"github.com/feichai0017/project-assistant/pkg/worker"
)

type App struct {
	Config *config.Config
	Logger logger.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Queue  queue.Queue

	Documents *document.DocumentService
	Chats     *chat.ChatService

	StartedAt time.Time
}

// needsRedis reports whether any configured component talks to Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.Queue.Backend == queue.BackendAsynq || cfg.Redis.HistoryCacheEnabled
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.Config, a.Logger

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	a.DB = db

	if needsRedis(cfg) {
		if a.Redis, err = redisClient.New(ctx, cfg.Redis); err != nil {
			return err
		}
	}

	store, err := storage.NewStorage(ctx, cfg.Storage, log.Named("storage"))
	if err != nil {
		return fmt.Errorf("init storage failed: %w", err)
	}

	if a.Queue, err = queue.New(ctx, cfg, log.Named("queue")); err != nil {
		return fmt.Errorf("init queue failed: %w", err)
	}

	completer, err := llm.New(ctx, cfg.LLM, log.Named("llm"))
	if err != nil {
		return fmt.Errorf("init llm failed: %w", err)
	}

	processors := agent.NewProcessorFactory(log.Named("agent"),
		ingest.NewFileProcessor(store, cfg.Worker.ProcessDelay, log.Named("ingest")),
		ingest.NewURLProcessor(cfg.Worker.ProcessDelay, log.Named("ingest")),
	)

	a.Documents = document.NewService(
		repository.NewDocumentRepository(db),
		repository.NewProjectRepository(db),
		store,
		a.Queue,
		processors,
		log.Named("document"),
		document.ServiceConfig{PresignExpiry: cfg.Storage.PresignExpiry},
	)

	var history chat.HistoryCache
	if cfg.Redis.HistoryCacheEnabled && a.Redis != nil {
		history = cache.NewHistoryCache(a.Redis,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}
	a.Chats = chat.NewChatService(
		repository.NewChatRepository(db),
		repository.NewMessageRepository(db),
		history,
		completer,
		log.Named("chat"),
		chat.ServiceConfig{HistoryWindow: cfg.LLM.HistoryWindow, Timeout: cfg.LLM.Timeout},
	)

	return nil
}

// NewWorker builds an ingestion worker consuming the configured queue.
func (a *App) NewWorker(ctx context.Context) (*worker.DocumentWorker, error) {
	consumer, err := queue.NewConsumer(ctx, a.Config, a.Logger.Named("consumer"))
	if err != nil {
		return nil, fmt.Errorf("init queue consumer failed: %w", err)
	}
	return worker.NewDocumentWorker(consumer, a.Documents, a.Logger.Named("worker")), nil
}

func (a *App) Close() error {
	var errs []error
	if a.Queue != nil {
		errs = append(errs, a.Queue.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
