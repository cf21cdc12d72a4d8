package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

const asynqDefaultQueue = "default"

// AsynqQueue 实现
type AsynqQueue struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
	logger   logger.Logger
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewAsynqQueue 创建新的队列实例
func NewAsynqQueue(redisCfg config.RedisConfig, cfg config.QueueConfig, log logger.Logger) *AsynqQueue {
	return &AsynqQueue{
		client:   asynq.NewClient(redisOpt(redisCfg)),
		maxRetry: cfg.MaxRetry,
		timeout:  cfg.TaskTimeout,
		logger:   log,
	}
}

// Enqueue 将任务加入队列. asynq assigns a random task id, so a re-confirm
// enqueues a second delivery rather than colliding with the first.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *IngestionTask) error {
	payload, err := encodeTask(task)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.Queue(asynqDefaultQueue),
		asynq.MaxRetry(q.maxRetry),
	}
	if q.timeout > 0 {
		opts = append(opts, asynq.Timeout(q.timeout))
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeIngest, payload), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	q.logger.Debug("Task enqueued",
		logger.String("taskId", info.ID),
		logger.String("documentId", task.DocumentID),
		logger.String("queue", info.Queue),
	)
	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

type AsynqConsumer struct {
	server   *asynq.Server
	logger   logger.Logger
	stopOnce sync.Once
	done     chan struct{}
}

func NewAsynqConsumer(redisCfg config.RedisConfig, cfg config.QueueConfig, concurrency int, log logger.Logger) *AsynqConsumer {
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{asynqDefaultQueue: 1}
	}

	server := asynq.NewServer(redisOpt(redisCfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n+1) * 30 * time.Second
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Warn("Task attempt failed",
				logger.String("type", task.Type()),
				logger.Int("retried", retried),
				logger.Int("maxRetry", maxRetry),
				logger.Error(err),
			)
		}),
		Logger: asynqLogger{log.Named("asynq")},
	})

	return &AsynqConsumer{server: server, logger: log, done: make(chan struct{})}
}

func (c *AsynqConsumer) Start(ctx context.Context, h Handler) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeIngest, func(ctx context.Context, t *asynq.Task) error {
		task, err := decodeTask(t.Payload())
		if err != nil {
			c.logger.Error("Dropping malformed task",
				logger.String("payload", string(t.Payload())),
				logger.Error(err),
			)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		return h(ctx, task, Attempt{Retry: retried, MaxRetry: maxRetry})
	})

	if err := c.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start asynq server: %w", err)
	}
	return nil
}

func (c *AsynqConsumer) Stop() {
	c.stopOnce.Do(func() {
		c.server.Shutdown()
		close(c.done)
	})
}

func (c *AsynqConsumer) Done() <-chan struct{} {
	return c.done
}

// asynqLogger routes asynq's own logging into ours.
type asynqLogger struct {
	l logger.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal(fmt.Sprint(args...)) }
