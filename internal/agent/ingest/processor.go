// Package ingest holds the per-source ingestion processors. Content
// extraction is not performed yet; a processor verifies its source and then
// simulates the work with a fixed delay.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/feichai0017/project-assistant/internal/agent"
	"github.com/feichai0017/project-assistant/internal/models"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

var ErrObjectMissing = errors.New("uploaded object not found")

// ObjectChecker is the slice of the blob store a file processor needs.
type ObjectChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

type FileProcessor struct {
	objects ObjectChecker
	delay   time.Duration
	logger  logger.Logger
}

func NewFileProcessor(objects ObjectChecker, delay time.Duration, log logger.Logger) *FileProcessor {
	return &FileProcessor{objects: objects, delay: delay, logger: log}
}

func (p *FileProcessor) CanProcess(kind models.SourceType) bool {
	return kind == models.SourceFile
}

func (p *FileProcessor) Process(ctx context.Context, src agent.Source) error {
	if src.ObjectKey == "" {
		return fmt.Errorf("document %s has no object key", src.DocumentID)
	}

	ok, err := p.objects.Exists(ctx, src.ObjectKey)
	if err != nil {
		return fmt.Errorf("check object %s: %w", src.ObjectKey, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectMissing, src.ObjectKey)
	}

	p.logger.Debug("Processing uploaded file",
		logger.String("documentId", src.DocumentID),
		logger.String("key", src.ObjectKey),
	)
	return wait(ctx, p.delay)
}

type URLProcessor struct {
	delay  time.Duration
	logger logger.Logger
}

func NewURLProcessor(delay time.Duration, log logger.Logger) *URLProcessor {
	return &URLProcessor{delay: delay, logger: log}
}

func (p *URLProcessor) CanProcess(kind models.SourceType) bool {
	return kind == models.SourceURL
}

func (p *URLProcessor) Process(ctx context.Context, src agent.Source) error {
	if src.URL == "" {
		return fmt.Errorf("document %s has no source url", src.DocumentID)
	}

	p.logger.Debug("Processing url source",
		logger.String("documentId", src.DocumentID),
		logger.String("url", src.URL),
	)
	return wait(ctx, p.delay)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
