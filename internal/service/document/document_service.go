package document

import (
	"context"

	"github.com/feichai0017/project-assistant/internal/models"
	"github.com/feichai0017/project-assistant/pkg/queue"
)

// UploadRequest describes a file the client is about to upload.
type UploadRequest struct {
	ProjectID string
	OwnerID   string
	Filename  string
	FileSize  int64
	FileType  string
}

// UploadTicket is returned to the client so it can PUT the file directly to the blob store.
type UploadTicket struct {
	UploadURL string           `json:"upload_url"`
	ObjectKey string           `json:"s3_key"`
	Document  *models.Document `json:"document"`
}

type DocumentManager interface {
	RequestUpload(ctx context.Context, req UploadRequest) (*UploadTicket, error)
	ConfirmUpload(ctx context.Context, projectID, ownerID, objectKey string) (*models.Document, error)
	AddURLSource(ctx context.Context, projectID, ownerID, rawURL string) (*models.Document, error)
	// RetryDocument re-queues a failed document by id, for either source kind.
	RetryDocument(ctx context.Context, projectID, ownerID, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, projectID, ownerID string) ([]models.Document, error)
	GetDocument(ctx context.Context, projectID, ownerID, documentID string) (*models.Document, error)
	DeleteDocument(ctx context.Context, projectID, ownerID, documentID string) (*models.Document, error)
	// HandleIngestion runs one delivery of an ingestion task.
	HandleIngestion(ctx context.Context, task *queue.IngestionTask, attempt queue.Attempt) error
}
