package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

const retryHeader = "x-retry-count"

// Dial connects to the broker and checks that a channel can be opened in time.
func Dial(ctx context.Context, url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		ch, err := conn.Channel()
		if err == nil {
			err = ch.Close()
		}
		done <- err
	}()

	select {
	case <-checkCtx.Done():
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq health check timeout: %w", checkCtx.Err())
	case err := <-done:
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
		}
		return conn, nil
	}
}

func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}
	return nil
}

func publish(ctx context.Context, ch *amqp.Channel, queueName string, body []byte, retry int) error {
	return ch.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      amqp.Table{retryHeader: int32(retry)},
		},
	)
}

// retryCount reads the redelivery counter carried in the message headers.
func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	default:
		return 0
	}
}

type RabbitQueue struct {
	conn      *amqp.Connection
	queueName string
	ownsConn  bool
	logger    logger.Logger
}

func NewRabbitQueue(conn *amqp.Connection, cfg config.QueueConfig, log logger.Logger, ownsConn bool) *RabbitQueue {
	return &RabbitQueue{
		conn:      conn,
		queueName: cfg.QueueName,
		ownsConn:  ownsConn,
		logger:    log,
	}
}

func (q *RabbitQueue) Enqueue(ctx context.Context, task *IngestionTask) error {
	payload, err := encodeTask(task)
	if err != nil {
		return err
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, q.queueName); err != nil {
		return err
	}
	if err := publish(ctx, ch, q.queueName, payload, 0); err != nil {
		return fmt.Errorf("publish task failed: %w", err)
	}

	q.logger.Debug("Task published",
		logger.String("queue", q.queueName),
		logger.String("documentId", task.DocumentID),
	)
	return nil
}

func (q *RabbitQueue) Close() error {
	if q.ownsConn {
		return q.conn.Close()
	}
	return nil
}

// RabbitConsumer runs concurrency consumers on one channel. A failed
// non-final delivery is republished with its retry counter bumped, then acked.
type RabbitConsumer struct {
	conn        *amqp.Connection
	queueName   string
	maxRetry    int
	concurrency int
	logger      logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

// republishFunc puts a failed delivery back on the queue with the given retry count.
type republishFunc func(ctx context.Context, body []byte, retry int) error

func NewRabbitConsumer(conn *amqp.Connection, cfg config.QueueConfig, concurrency int, log logger.Logger) *RabbitConsumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RabbitConsumer{
		conn:        conn,
		queueName:   cfg.QueueName,
		maxRetry:    cfg.MaxRetry,
		concurrency: concurrency,
		logger:      log,
		done:        make(chan struct{}),
	}
}

func (c *RabbitConsumer) Start(ctx context.Context, h Handler) error {
	if c.cancel != nil {
		return nil
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := declare(ch, c.queueName); err != nil {
		_ = ch.Close()
		return err
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	republish := func(ctx context.Context, body []byte, retry int) error {
		return publish(ctx, ch, c.queueName, body, retry)
	}
	c.run(ctx, deliveries, h, republish, func() { _ = ch.Close() })
	return nil
}

// run fans deliveries out to the consumer goroutines. Done is closed once
// they have all returned, whether from Stop or from the broker closing the
// delivery channel.
func (c *RabbitConsumer) run(ctx context.Context, deliveries <-chan amqp.Delivery, h Handler, republish republishFunc, cleanup func()) {
	workerCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					c.handle(workerCtx, d, h, republish)
				}
			}
		}()
	}

	go func() {
		c.wg.Wait()
		if workerCtx.Err() == nil {
			c.logger.Error("Delivery channel closed by broker, consumer stopped",
				logger.String("queue", c.queueName),
			)
		}
		if cleanup != nil {
			cleanup()
		}
		close(c.done)
	}()
}

func (c *RabbitConsumer) handle(ctx context.Context, d amqp.Delivery, h Handler, republish republishFunc) {
	task, err := decodeTask(d.Body)
	if err != nil {
		c.logger.Error("Dropping malformed task", logger.Error(err))
		_ = d.Nack(false, false)
		return
	}

	attempt := Attempt{Retry: retryCount(d.Headers), MaxRetry: c.maxRetry}
	if err := h(ctx, task, attempt); err == nil {
		_ = d.Ack(false)
		return
	}

	if ctx.Err() != nil {
		// interrupted by shutdown: hand it back without spending an attempt
		_ = d.Nack(false, true)
		return
	}

	if attempt.Final() {
		_ = d.Nack(false, false)
		return
	}

	if err := republish(ctx, d.Body, attempt.Retry+1); err != nil {
		c.logger.Error("Failed to republish task",
			logger.String("documentId", task.DocumentID),
			logger.Error(err),
		)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// Done is closed when the consumer goroutines have exited.
func (c *RabbitConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *RabbitConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
