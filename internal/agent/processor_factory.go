// Package agent selects the processor that ingests a document's content.
package agent

import (
	"context"
	"fmt"

	"github.com/feichai0017/project-assistant/internal/models"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

// Source identifies the content of one document to ingest.
type Source struct {
	DocumentID string
	ProjectID  string
	Kind       models.SourceType
	ObjectKey  string
	URL        string
}

// Processor 文档处理器接口
type Processor interface {
	// CanProcess 检查是否可以处理指定来源
	CanProcess(kind models.SourceType) bool

	Process(ctx context.Context, src Source) error
}

type ProcessorFactory struct {
	processors map[models.SourceType]Processor
	logger     logger.Logger
}

// NewProcessorFactory registers each processor for every known source kind it accepts.
func NewProcessorFactory(log logger.Logger, processors ...Processor) *ProcessorFactory {
	factory := &ProcessorFactory{
		processors: make(map[models.SourceType]Processor),
		logger:     log,
	}
	for _, p := range processors {
		for _, kind := range []models.SourceType{models.SourceFile, models.SourceURL} {
			if p.CanProcess(kind) {
				factory.processors[kind] = p
			}
		}
	}
	return factory
}

func (f *ProcessorFactory) GetProcessor(kind models.SourceType) (Processor, error) {
	processor, ok := f.processors[kind]
	if !ok {
		f.logger.Error("No processor found", logger.String("sourceType", string(kind)))
		return nil, fmt.Errorf("no processor found for source type: %s", kind)
	}
	return processor, nil
}

// Process dispatches src to the processor registered for its kind.
func (f *ProcessorFactory) Process(ctx context.Context, src Source) error {
	p, err := f.GetProcessor(src.Kind)
	if err != nil {
		return err
	}
	return p.Process(ctx, src)
}
