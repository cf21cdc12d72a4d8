package document

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/project-assistant/internal/agent"
	"github.com/feichai0017/project-assistant/internal/apperr"
	"github.com/feichai0017/project-assistant/internal/models"
	"github.com/feichai0017/project-assistant/pkg/logger"
	"github.com/feichai0017/project-assistant/pkg/queue"
)

const (
	defaultPresignExpiry = time.Hour
	urlFileType          = "text/html"
)

type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, projectID, ownerID, id string) (*models.Document, error)
	GetByObjectKey(ctx context.Context, projectID, ownerID, key string) (*models.Document, error)
	ListByProject(ctx context.Context, projectID, ownerID string) ([]models.Document, error)
	UpdateStatus(ctx context.Context, doc *models.Document, from, to models.ProcessingStatus, processingError string) (bool, error)
	Delete(ctx context.Context, projectID, ownerID, id string) (int64, error)
}

type ProjectStore interface {
	GetByIDAndOwner(ctx context.Context, projectID, ownerID string) (*models.Project, error)
}

type BlobStore interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Processor interface {
	Process(ctx context.Context, src agent.Source) error
}

type ServiceConfig struct {
	PresignExpiry time.Duration
}

type DocumentService struct {
	docs      DocumentStore
	projects  ProjectStore
	blobs     BlobStore
	queue     queue.Queue
	processor Processor
	logger    logger.Logger
	config    ServiceConfig
	now       func() time.Time
}

var _ DocumentManager = (*DocumentService)(nil)

func NewService(
	docs DocumentStore,
	projects ProjectStore,
	blobs BlobStore,
	q queue.Queue,
	processor Processor,
	log logger.Logger,
	cfg ServiceConfig,
) *DocumentService {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = defaultPresignExpiry
	}
	return &DocumentService{
		docs:      docs,
		projects:  projects,
		blobs:     blobs,
		queue:     q,
		processor: processor,
		logger:    log,
		config:    cfg,
		now:       time.Now,
	}
}

// RequestUpload 生成上传地址并创建 uploading 状态的文档记录
func (s *DocumentService) RequestUpload(ctx context.Context, req UploadRequest) (*UploadTicket, error) {
	const op = "request upload"
	log := logger.FromContext(ctx, s.logger)

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, apperr.Validation(op, "filename is required")
	}
	if strings.TrimSpace(req.FileType) == "" {
		return nil, apperr.Validation(op, "file_type is required")
	}
	if req.FileSize < 0 {
		return nil, apperr.Validation(op, "file_size must not be negative")
	}

	project, err := s.projects.GetByIDAndOwner(ctx, req.ProjectID, req.OwnerID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if project == nil {
		return nil, apperr.NotFound(op, "project %s not found or access denied", req.ProjectID)
	}

	key := objectKey(req.ProjectID, filename)
	uploadURL, err := s.blobs.PresignPut(ctx, key, req.FileType, s.config.PresignExpiry)
	if err != nil {
		log.Error("Failed to presign upload", logger.String("key", key), logger.Error(err))
		return nil, apperr.Upstream(op, err)
	}

	doc := &models.Document{
		ProjectID:        req.ProjectID,
		OwnerID:          req.OwnerID,
		Filename:         filename,
		SourceType:       models.SourceFile,
		S3Key:            key,
		FileSize:         req.FileSize,
		FileType:         req.FileType,
		ProcessingStatus: models.StatusUploading,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		log.Error("Failed to create document record", logger.String("key", key), logger.Error(err))
		return nil, apperr.Internal(op, err)
	}

	log.Info("Upload URL generated",
		logger.String("documentId", doc.ID),
		logger.String("key", key),
	)
	return &UploadTicket{UploadURL: uploadURL, ObjectKey: key, Document: doc}, nil
}

// ConfirmUpload applies the confirm event to the document stored under
// objectKey and enqueues its ingestion.
func (s *DocumentService) ConfirmUpload(ctx context.Context, projectID, ownerID, objectKey string) (*models.Document, error) {
	const op = "confirm upload"

	if strings.TrimSpace(objectKey) == "" {
		return nil, apperr.Validation(op, "s3_key is required")
	}

	doc, err := s.docs.GetByObjectKey(ctx, projectID, ownerID, objectKey)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if doc == nil {
		return nil, apperr.NotFound(op, "document not found or access denied")
	}

	return s.requeue(ctx, op, doc)
}

// RetryDocument re-queues a document by id. It is the only retry path for
// url sources, which have no object key to confirm.
func (s *DocumentService) RetryDocument(ctx context.Context, projectID, ownerID, documentID string) (*models.Document, error) {
	const op = "retry document"
	doc, err := s.docs.Get(ctx, projectID, ownerID, documentID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if doc == nil {
		return nil, apperr.NotFound(op, "document %s not found or access denied", documentID)
	}
	return s.requeue(ctx, op, doc)
}

// requeue applies the confirm event and enqueues ingestion. Documents
// already being processed or completed are returned unchanged.
func (s *DocumentService) requeue(ctx context.Context, op string, doc *models.Document) (*models.Document, error) {
	log := logger.FromContext(ctx, s.logger)

	prior, priorErr := doc.ProcessingStatus, doc.ProcessingError
	next, err := models.Transition(prior, models.EventConfirm)
	if err != nil {
		log.Info("Confirm ignored",
			logger.String("documentId", doc.ID),
			logger.String("status", string(prior)),
		)
		return doc, nil
	}

	moved := prior != next
	if moved {
		ok, err := s.docs.UpdateStatus(ctx, doc, prior, next, "")
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		if !ok {
			// lost a race with another confirm, a worker or a delete
			return s.reload(ctx, op, doc)
		}
		doc.ProcessingStatus, doc.ProcessingError = next, ""
	}

	if err := s.queue.Enqueue(ctx, s.taskFor(doc)); err != nil {
		log.Error("Failed to enqueue ingestion", logger.String("documentId", doc.ID), logger.Error(err))
		if moved {
			if _, revertErr := s.docs.UpdateStatus(context.WithoutCancel(ctx), doc, next, prior, priorErr); revertErr != nil {
				log.Error("Failed to revert document status",
					logger.String("documentId", doc.ID),
					logger.Error(revertErr),
				)
			}
		}
		return nil, apperr.Upstream(op, err)
	}

	log.Info("Document queued", logger.String("documentId", doc.ID), logger.String("status", string(doc.ProcessingStatus)))
	return doc, nil
}

// AddURLSource 添加网页来源并入队
func (s *DocumentService) AddURLSource(ctx context.Context, projectID, ownerID, rawURL string) (*models.Document, error) {
	const op = "add url"
	log := logger.FromContext(ctx, s.logger)

	normalized, err := normalizeURL(rawURL)
	if err != nil {
		return nil, apperr.Validation(op, "%v", err)
	}

	doc := &models.Document{
		ProjectID:        projectID,
		OwnerID:          ownerID,
		Filename:         normalized,
		SourceType:       models.SourceURL,
		SourceURL:        normalized,
		FileType:         urlFileType,
		ProcessingStatus: models.StatusQueued,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, apperr.Internal(op, err)
	}

	if err := s.queue.Enqueue(ctx, s.taskFor(doc)); err != nil {
		log.Error("Failed to enqueue ingestion", logger.String("documentId", doc.ID), logger.Error(err))
		if _, delErr := s.docs.Delete(context.WithoutCancel(ctx), projectID, ownerID, doc.ID); delErr != nil {
			log.Error("Failed to remove url document", logger.String("documentId", doc.ID), logger.Error(delErr))
		}
		return nil, apperr.Upstream(op, err)
	}

	log.Info("URL source added", logger.String("documentId", doc.ID), logger.String("url", normalized))
	return doc, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, projectID, ownerID string) ([]models.Document, error) {
	docs, err := s.docs.ListByProject(ctx, projectID, ownerID)
	if err != nil {
		return nil, apperr.Internal("list documents", err)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, projectID, ownerID, documentID string) (*models.Document, error) {
	const op = "get document"
	doc, err := s.docs.Get(ctx, projectID, ownerID, documentID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if doc == nil {
		return nil, apperr.NotFound(op, "document %s not found or access denied", documentID)
	}
	return doc, nil
}

// DeleteDocument removes the uploaded object, best effort, then the record.
func (s *DocumentService) DeleteDocument(ctx context.Context, projectID, ownerID, documentID string) (*models.Document, error) {
	const op = "delete document"
	log := logger.FromContext(ctx, s.logger)

	doc, err := s.GetDocument(ctx, projectID, ownerID, documentID)
	if err != nil {
		return nil, err
	}

	if doc.S3Key != "" {
		if err := s.blobs.Delete(ctx, doc.S3Key); err != nil {
			log.Warn("Failed to delete object, removing record anyway",
				logger.String("documentId", doc.ID),
				logger.String("key", doc.S3Key),
				logger.Error(err),
			)
		}
	}

	n, err := s.docs.Delete(ctx, projectID, ownerID, documentID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if n == 0 {
		return nil, apperr.Internal(op, errors.New("failed to delete document record"))
	}

	log.Info("Document deleted", logger.String("documentId", doc.ID))
	return doc, nil
}

// HandleIngestion drives one delivery through start, processing and the
// terminal transition. It returns an error only when the queue should count
// the delivery as failed.
func (s *DocumentService) HandleIngestion(ctx context.Context, task *queue.IngestionTask, attempt queue.Attempt) error {
	log := s.logger.With(
		logger.String("documentId", task.DocumentID),
		logger.Int("retry", attempt.Retry),
	)

	doc, err := s.docs.Get(ctx, task.ProjectID, task.OwnerID, task.DocumentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		log.Info("Document gone, dropping task")
		return nil
	}

	processing, err := models.Transition(doc.ProcessingStatus, models.EventStart)
	if err != nil {
		log.Info("Document not startable, dropping task", logger.String("status", string(doc.ProcessingStatus)))
		return nil
	}
	ok, err := s.docs.UpdateStatus(ctx, doc, doc.ProcessingStatus, processing, "")
	if err != nil {
		return fmt.Errorf("start processing: %w", err)
	}
	if !ok {
		log.Info("Document moved concurrently, dropping task")
		return nil
	}
	doc.ProcessingStatus = processing

	start := time.Now()
	procErr := s.processor.Process(ctx, agent.Source{
		DocumentID: doc.ID,
		ProjectID:  doc.ProjectID,
		Kind:       doc.SourceType,
		ObjectKey:  doc.S3Key,
		URL:        doc.SourceURL,
	})

	// status writes must land even when the worker is shutting down
	writeCtx := context.WithoutCancel(ctx)

	if procErr == nil {
		completed, _ := models.Transition(processing, models.EventSucceed)
		if ok, err := s.docs.UpdateStatus(writeCtx, doc, processing, completed, ""); err != nil {
			return fmt.Errorf("complete processing: %w", err)
		} else if !ok {
			log.Info("Document deleted during processing")
			return nil
		}
		log.Info("Document processed", logger.Duration("elapsed", time.Since(start)))
		return nil
	}

	if ctx.Err() != nil {
		// shutdown or deadline: hand the document back untouched for redelivery
		queued, _ := models.Transition(processing, models.EventRetry)
		if _, err := s.docs.UpdateStatus(writeCtx, doc, processing, queued, ""); err != nil {
			log.Error("Failed to requeue interrupted document", logger.Error(err))
		}
		log.Warn("Document processing interrupted", logger.Error(procErr))
		return fmt.Errorf("process document %s: %w", doc.ID, procErr)
	}

	event := models.EventRetry
	if attempt.Final() {
		event = models.EventFail
	}
	next, _ := models.Transition(processing, event)
	if _, err := s.docs.UpdateStatus(writeCtx, doc, processing, next, procErr.Error()); err != nil {
		log.Error("Failed to record processing failure", logger.Error(err))
	}

	log.Warn("Document processing failed",
		logger.String("status", string(next)),
		logger.Error(procErr),
	)
	return fmt.Errorf("process document %s: %w", doc.ID, procErr)
}

func (s *DocumentService) reload(ctx context.Context, op string, doc *models.Document) (*models.Document, error) {
	fresh, err := s.docs.Get(ctx, doc.ProjectID, doc.OwnerID, doc.ID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if fresh == nil {
		return nil, apperr.NotFound(op, "document not found or access denied")
	}
	return fresh, nil
}

func (s *DocumentService) taskFor(doc *models.Document) *queue.IngestionTask {
	return &queue.IngestionTask{
		DocumentID: doc.ID,
		ProjectID:  doc.ProjectID,
		OwnerID:    doc.OwnerID,
		SourceType: string(doc.SourceType),
		ObjectKey:  doc.S3Key,
		SourceURL:  doc.SourceURL,
		EnqueuedAt: s.now(),
	}
}

// objectKey builds projects/{project}/documents/{uuid}[.ext].
func objectKey(projectID, filename string) string {
	key := fmt.Sprintf("projects/%s/documents/%s", projectID, uuid.NewString())
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return key
	}
	return key + "." + ext
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("url is required")
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid url: %s", raw)
	}
	return trimmed, nil
}
