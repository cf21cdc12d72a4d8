package worker

import (
	"context"
	"time"

	"github.com/feichai0017/project-assistant/pkg/logger"
	"github.com/feichai0017/project-assistant/pkg/queue"
)

// IngestionHandler is the document service side of a delivery.
type IngestionHandler interface {
	HandleIngestion(ctx context.Context, task *queue.IngestionTask, attempt queue.Attempt) error
}

type DocumentWorker struct {
	BaseWorker
	docService IngestionHandler
}

func NewDocumentWorker(consumer queue.Consumer, docService IngestionHandler, log logger.Logger) *DocumentWorker {
	return &DocumentWorker{
		BaseWorker: BaseWorker{
			consumer: consumer,
			logger:   log,
			stopChan: make(chan struct{}),
		},
		docService: docService,
	}
}

func (w *DocumentWorker) handleIngestion(ctx context.Context, task *queue.IngestionTask, attempt queue.Attempt) error {
	log := w.logger.With(
		logger.String("documentId", task.DocumentID),
		logger.String("sourceType", task.SourceType),
		logger.Int("retry", attempt.Retry),
		logger.Int("maxRetry", attempt.MaxRetry),
	)
	log.Info("Processing ingestion task",
		logger.Duration("queued", time.Since(task.EnqueuedAt)),
	)

	if err := w.docService.HandleIngestion(ctx, task, attempt); err != nil {
		log.Error("Ingestion task failed", logger.Bool("final", attempt.Final()), logger.Error(err))
		return err
	}
	return nil
}

// Start begins consuming and stops the worker when ctx is cancelled or the
// consumer gives up.
func (w *DocumentWorker) Start(ctx context.Context) error {
	if err := w.consumer.Start(ctx, w.handleIngestion); err != nil {
		return err
	}
	w.logger.Info("Worker started")

	go func() {
		select {
		case <-ctx.Done():
			_ = w.Stop()
		case <-w.consumer.Done():
			w.logger.Error("Queue consumer exited")
			_ = w.Stop()
		case <-w.stopChan:
		}
	}()

	return nil
}
