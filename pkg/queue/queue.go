// Package queue carries ingestion requests from the coordinator to the
// ingestion workers. Two backends exist: asynq over Redis and RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

// TaskType 定义任务类型
const TaskTypeIngest = "document:ingest"

const (
	BackendAsynq    = "asynq"
	BackendRabbitMQ = "rabbitmq"
)

// IngestionTask is the single request variant for file and url sources.
type IngestionTask struct {
	DocumentID string    `json:"document_id"`
	ProjectID  string    `json:"project_id"`
	OwnerID    string    `json:"owner_id"`
	SourceType string    `json:"source_type"`
	ObjectKey  string    `json:"object_key,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

var errInvalidTask = errors.New("invalid ingestion task")

func (t *IngestionTask) Validate() error {
	if t.DocumentID == "" || t.ProjectID == "" || t.OwnerID == "" {
		return fmt.Errorf("%w: document, project and owner ids are required", errInvalidTask)
	}
	return nil
}

func encodeTask(t *IngestionTask) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return payload, nil
}

func decodeTask(payload []byte) (*IngestionTask, error) {
	var t IngestionTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Queue 接口定义
type Queue interface {
	Enqueue(ctx context.Context, task *IngestionTask) error
	Close() error
}

// Attempt describes which delivery of a task is being handled.
type Attempt struct {
	// Retry is the number of earlier failed deliveries.
	Retry    int
	MaxRetry int
}

// Final reports whether a failure now exhausts the task.
func (a Attempt) Final() bool {
	return a.Retry >= a.MaxRetry
}

// Handler processes one delivery. A non-nil error on a non-final attempt
// asks the backend to redeliver.
type Handler func(ctx context.Context, task *IngestionTask, attempt Attempt) error

// Consumer 定义消费端
type Consumer interface {
	Start(ctx context.Context, h Handler) error
	Stop()
	// Done is closed once the consumer no longer receives deliveries.
	Done() <-chan struct{}
}

// New builds the producer side for the configured backend.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Queue, error) {
	switch cfg.Queue.Backend {
	case BackendAsynq:
		return NewAsynqQueue(cfg.Redis, cfg.Queue, log), nil
	case BackendRabbitMQ:
		conn, err := Dial(ctx, cfg.Queue.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		return NewRabbitQueue(conn, cfg.Queue, log, true), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", cfg.Queue.Backend)
	}
}

// NewConsumer builds the worker side for the configured backend.
func NewConsumer(ctx context.Context, cfg *config.Config, log logger.Logger) (Consumer, error) {
	switch cfg.Queue.Backend {
	case BackendAsynq:
		return NewAsynqConsumer(cfg.Redis, cfg.Queue, cfg.Worker.Concurrency, log), nil
	case BackendRabbitMQ:
		conn, err := Dial(ctx, cfg.Queue.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		return NewRabbitConsumer(conn, cfg.Queue, cfg.Worker.Concurrency, log), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", cfg.Queue.Backend)
	}
}
