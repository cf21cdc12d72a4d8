package worker

import (
	"context"
	"sync"

	"github.com/feichai0017/project-assistant/pkg/logger"
	"github.com/feichai0017/project-assistant/pkg/queue"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

// BaseWorker owns the queue consumer and its shutdown.
type BaseWorker struct {
	consumer queue.Consumer
	logger   logger.Logger
	stopOnce sync.Once
	stopChan chan struct{}
}

// Done is closed once the worker has stopped.
func (w *BaseWorker) Done() <-chan struct{} {
	return w.stopChan
}

func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		w.consumer.Stop()
		close(w.stopChan)
		w.logger.Info("Worker stopped")
	})
	return nil
}
