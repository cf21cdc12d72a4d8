package document

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/project-assistant/internal/agent"
	"github.com/feichai0017/project-assistant/internal/apperr"
	"github.com/feichai0017/project-assistant/internal/models"
	"github.com/feichai0017/project-assistant/pkg/logger"
	"github.com/feichai0017/project-assistant/pkg/queue"
)

type memDocs struct {
	mu        sync.Mutex
	rows      map[string]models.Document
	clock     time.Time
	createErr error
	// deleteNoop makes Delete report zero rows without removing anything
	deleteNoop bool
}

func newMemDocs() *memDocs {
	return &memDocs{rows: map[string]models.Document{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memDocs) Create(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	m.clock = m.clock.Add(time.Second)
	doc.CreatedAt = m.clock
	m.rows[doc.ID] = *doc
	return nil
}

func (m *memDocs) find(match func(models.Document) bool) *models.Document {
	for _, d := range m.rows {
		if match(d) {
			d := d
			return &d
		}
	}
	return nil
}

func (m *memDocs) Get(ctx context.Context, projectID, ownerID, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(d models.Document) bool {
		return d.ID == id && d.ProjectID == projectID && d.OwnerID == ownerID
	}), nil
}

func (m *memDocs) GetByObjectKey(ctx context.Context, projectID, ownerID, key string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(d models.Document) bool {
		return d.S3Key == key && d.ProjectID == projectID && d.OwnerID == ownerID
	}), nil
}

func (m *memDocs) ListByProject(ctx context.Context, projectID, ownerID string) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Document{}
	for _, d := range m.rows {
		if d.ProjectID == projectID && d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memDocs) UpdateStatus(ctx context.Context, doc *models.Document, from, to models.ProcessingStatus, processingError string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[doc.ID]
	if !ok || row.ProjectID != doc.ProjectID || row.OwnerID != doc.OwnerID || row.ProcessingStatus != from {
		return false, nil
	}
	row.ProcessingStatus = to
	row.ProcessingError = processingError
	m.rows[doc.ID] = row
	return true, nil
}

func (m *memDocs) Delete(ctx context.Context, projectID, ownerID, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if m.deleteNoop || !ok || row.ProjectID != projectID || row.OwnerID != ownerID {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memDocs) status(id string) models.ProcessingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].ProcessingStatus
}

func (m *memDocs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memProjects struct {
	projects map[string]string // id -> owner
}

func (m *memProjects) GetByIDAndOwner(ctx context.Context, projectID, ownerID string) (*models.Project, error) {
	if owner, ok := m.projects[projectID]; ok && owner == ownerID {
		return &models.Project{ID: projectID, OwnerID: ownerID}, nil
	}
	return nil, nil
}

type presignCall struct {
	key, contentType string
	expires          time.Duration
}

type fakeBlobs struct {
	presigned  []presignCall
	deleted    []string
	presignErr error
	deleteErr  error
}

func (f *fakeBlobs) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presigned = append(f.presigned, presignCall{key, contentType, expires})
	return "https://blobs.example/" + key + "?sig=x", nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*queue.IngestionTask
	err   error
}

func (f *fakeQueue) Enqueue(ctx context.Context, task *queue.IngestionTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeQueue) Close() error { return nil }

type processorFunc func(ctx context.Context, src agent.Source) error

func (f processorFunc) Process(ctx context.Context, src agent.Source) error { return f(ctx, src) }

type fixture struct {
	svc    *DocumentService
	docs   *memDocs
	blobs  *fakeBlobs
	queue  *fakeQueue
	procs  []agent.Source
	procFn func(agent.Source) error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:  newMemDocs(),
		blobs: &fakeBlobs{},
		queue: &fakeQueue{},
	}
	proc := processorFunc(func(ctx context.Context, src agent.Source) error {
		f.procs = append(f.procs, src)
		if f.procFn != nil {
			return f.procFn(src)
		}
		return nil
	})
	projects := &memProjects{projects: map[string]string{"p1": "u1"}}
	f.svc = NewService(f.docs, projects, f.blobs, f.queue, proc, logger.NewTestLogger(), ServiceConfig{})
	return f
}

func (f *fixture) upload(t *testing.T) *models.Document {
	t.Helper()
	ticket, err := f.svc.RequestUpload(context.Background(), UploadRequest{
		ProjectID: "p1", OwnerID: "u1", Filename: "report.pdf", FileSize: 1000, FileType: "application/pdf",
	})
	require.NoError(t, err)
	return ticket.Document
}

var keyPattern = regexp.MustCompile(`^projects/p1/documents/[0-9a-f-]{36}\.pdf$`)

func TestRequestUpload(t *testing.T) {
	f := newFixture(t)

	ticket, err := f.svc.RequestUpload(context.Background(), UploadRequest{
		ProjectID: "p1", OwnerID: "u1", Filename: "report.pdf", FileSize: 1000, FileType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, ticket.ObjectKey)
	assert.Contains(t, ticket.UploadURL, ticket.ObjectKey)
	assert.Equal(t, models.StatusUploading, ticket.Document.ProcessingStatus)
	assert.Equal(t, ticket.ObjectKey, ticket.Document.S3Key)
	assert.Equal(t, 1, f.docs.count())

	require.Len(t, f.blobs.presigned, 1)
	assert.Equal(t, "application/pdf", f.blobs.presigned[0].contentType)
	assert.Equal(t, time.Hour, f.blobs.presigned[0].expires)
	assert.Empty(t, f.queue.tasks)
}

func TestRequestUploadKeyWithoutExtension(t *testing.T) {
	f := newFixture(t)
	ticket, err := f.svc.RequestUpload(context.Background(), UploadRequest{
		ProjectID: "p1", OwnerID: "u1", Filename: "Makefile", FileType: "text/plain",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^projects/p1/documents/[0-9a-f-]{36}$`, ticket.ObjectKey)
}

func TestRequestUploadRejections(t *testing.T) {
	cases := []struct {
		name string
		req  UploadRequest
		kind apperr.Kind
	}{
		{"foreign project", UploadRequest{ProjectID: "p1", OwnerID: "u2", Filename: "a.pdf", FileType: "application/pdf"}, apperr.KindNotFound},
		{"unknown project", UploadRequest{ProjectID: "p9", OwnerID: "u1", Filename: "a.pdf", FileType: "application/pdf"}, apperr.KindNotFound},
		{"no filename", UploadRequest{ProjectID: "p1", OwnerID: "u1", Filename: " ", FileType: "application/pdf"}, apperr.KindValidation},
		{"no type", UploadRequest{ProjectID: "p1", OwnerID: "u1", Filename: "a.pdf"}, apperr.KindValidation},
		{"negative size", UploadRequest{ProjectID: "p1", OwnerID: "u1", Filename: "a.pdf", FileType: "application/pdf", FileSize: -1}, apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.RequestUpload(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
			assert.Zero(t, f.docs.count())
		})
	}
}

func TestRequestUploadPresignFailureCreatesNoRow(t *testing.T) {
	f := newFixture(t)
	f.blobs.presignErr = errors.New("signer down")

	_, err := f.svc.RequestUpload(context.Background(), UploadRequest{
		ProjectID: "p1", OwnerID: "u1", Filename: "a.pdf", FileType: "application/pdf",
	})
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Zero(t, f.docs.count())
}

func TestRequestUploadInsertFailure(t *testing.T) {
	f := newFixture(t)
	f.docs.createErr = errors.New("disk full")

	_, err := f.svc.RequestUpload(context.Background(), UploadRequest{
		ProjectID: "p1", OwnerID: "u1", Filename: "a.pdf", FileType: "application/pdf",
	})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestConfirmUploadQueuesAndEnqueues(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	got, err := f.svc.ConfirmUpload(context.Background(), "p1", "u1", doc.S3Key)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.ProcessingStatus)
	assert.Equal(t, models.StatusQueued, f.docs.status(doc.ID))

	require.Len(t, f.queue.tasks, 1)
	task := f.queue.tasks[0]
	assert.Equal(t, doc.ID, task.DocumentID)
	assert.Equal(t, "file", task.SourceType)
	assert.Equal(t, doc.S3Key, task.ObjectKey)

	// re-confirm is idempotent on status and enqueues again
	got, err = f.svc.ConfirmUpload(context.Background(), "p1", "u1", doc.S3Key)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.ProcessingStatus)
	assert.Len(t, f.queue.tasks, 2)
}

func TestConfirmUploadRetriesFailedDocument(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	_, err := f.docs.UpdateStatus(context.Background(), doc, models.StatusUploading, models.StatusFailed, "boom")
	require.NoError(t, err)

	got, err := f.svc.ConfirmUpload(context.Background(), "p1", "u1", doc.S3Key)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.ProcessingStatus)
	assert.Empty(t, got.ProcessingError)
	assert.Len(t, f.queue.tasks, 1)
}

func TestConfirmUploadLeavesAdvancedDocumentAlone(t *testing.T) {
	for _, status := range []models.ProcessingStatus{models.StatusProcessing, models.StatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			doc := f.upload(t)
			_, err := f.docs.UpdateStatus(context.Background(), doc, models.StatusUploading, status, "")
			require.NoError(t, err)

			got, err := f.svc.ConfirmUpload(context.Background(), "p1", "u1", doc.S3Key)
			require.NoError(t, err)
			assert.Equal(t, status, got.ProcessingStatus)
			assert.Equal(t, status, f.docs.status(doc.ID))
			assert.Empty(t, f.queue.tasks)
		})
	}
}

func TestConfirmUploadScopedToOwnerAndProject(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	_, err := f.svc.ConfirmUpload(context.Background(), "p1", "u2", doc.S3Key)
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.svc.ConfirmUpload(context.Background(), "p2", "u1", doc.S3Key)
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.svc.ConfirmUpload(context.Background(), "p1", "u1", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Equal(t, models.StatusUploading, f.docs.status(doc.ID))
	assert.Empty(t, f.queue.tasks)
}

func TestConfirmUploadRevertsWhenEnqueueFails(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	f.queue.err = errors.New("broker unreachable")

	_, err := f.svc.ConfirmUpload(context.Background(), "p1", "u1", doc.S3Key)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, models.StatusUploading, f.docs.status(doc.ID))
}

func TestAddURLSource(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.AddURLSource(context.Background(), "p1", "u1", "  example.com/docs ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", doc.SourceURL)
	assert.Equal(t, doc.SourceURL, doc.Filename)
	assert.Equal(t, models.SourceURL, doc.SourceType)
	assert.Empty(t, doc.S3Key)
	assert.Zero(t, doc.FileSize)
	assert.Equal(t, "text/html", doc.FileType)
	assert.Equal(t, models.StatusQueued, doc.ProcessingStatus)

	require.Len(t, f.queue.tasks, 1)
	assert.Equal(t, "url", f.queue.tasks[0].SourceType)
	assert.Equal(t, "https://example.com/docs", f.queue.tasks[0].SourceURL)

	kept, err := f.svc.AddURLSource(context.Background(), "p1", "u1", "http://plain.example")
	require.NoError(t, err)
	assert.Equal(t, "http://plain.example", kept.SourceURL)
}

func TestAddURLSourceRejections(t *testing.T) {
	f := newFixture(t)
	for _, raw := range []string{"", "   ", "https://"} {
		_, err := f.svc.AddURLSource(context.Background(), "p1", "u1", raw)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), raw)
	}
	assert.Zero(t, f.docs.count())
}

func TestAddURLSourceRemovesRowWhenEnqueueFails(t *testing.T) {
	f := newFixture(t)
	f.queue.err = errors.New("broker unreachable")

	_, err := f.svc.AddURLSource(context.Background(), "p1", "u1", "example.com")
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Zero(t, f.docs.count())
}

func TestListDocumentsNewestFirst(t *testing.T) {
	f := newFixture(t)

	empty, err := f.svc.ListDocuments(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := f.upload(t)
	second := f.upload(t)
	docs, err := f.svc.ListDocuments(context.Background(), "p1", "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second.ID, docs[0].ID)
	assert.Equal(t, first.ID, docs[1].ID)
}

func TestGetDocument(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	got, err := f.svc.GetDocument(context.Background(), "p1", "u1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploading, got.ProcessingStatus)

	_, err = f.svc.GetDocument(context.Background(), "p1", "u2", doc.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	f.blobs.deleteErr = errors.New("blob store down")

	deleted, err := f.svc.DeleteDocument(context.Background(), "p1", "u1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, deleted.ID)
	assert.Equal(t, []string{doc.S3Key}, f.blobs.deleted)
	assert.Zero(t, f.docs.count())

	_, err = f.svc.DeleteDocument(context.Background(), "p1", "u1", doc.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteURLDocumentSkipsBlobStore(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.AddURLSource(context.Background(), "p1", "u1", "example.com")
	require.NoError(t, err)

	_, err = f.svc.DeleteDocument(context.Background(), "p1", "u1", doc.ID)
	require.NoError(t, err)
	assert.Empty(t, f.blobs.deleted)
}

func TestDeleteDocumentZeroRowsIsInternal(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	f.docs.deleteNoop = true

	_, err := f.svc.DeleteDocument(context.Background(), "p1", "u1", doc.ID)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestDeleteDocumentForeignOwner(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	_, err := f.svc.DeleteDocument(context.Background(), "p1", "u2", doc.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, f.blobs.deleted)
	assert.Equal(t, 1, f.docs.count())
}

func (f *fixture) confirmed(t *testing.T) (*models.Document, *queue.IngestionTask) {
	t.Helper()
	doc := f.upload(t)
	_, err := f.svc.ConfirmUpload(context.Background(), "p1", "u1", doc.S3Key)
	require.NoError(t, err)
	return doc, f.queue.tasks[len(f.queue.tasks)-1]
}

func TestHandleIngestionCompletes(t *testing.T) {
	f := newFixture(t)
	doc, task := f.confirmed(t)

	err := f.svc.HandleIngestion(context.Background(), task, queue.Attempt{MaxRetry: 3})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, f.docs.status(doc.ID))

	require.Len(t, f.procs, 1)
	assert.Equal(t, models.SourceFile, f.procs[0].Kind)
	assert.Equal(t, doc.S3Key, f.procs[0].ObjectKey)

	// a duplicate delivery after completion changes nothing
	require.NoError(t, f.svc.HandleIngestion(context.Background(), task, queue.Attempt{MaxRetry: 3}))
	assert.Equal(t, models.StatusCompleted, f.docs.status(doc.ID))
	assert.Len(t, f.procs, 1)
}

func TestHandleIngestionRetriesThenFails(t *testing.T) {
	f := newFixture(t)
	doc, task := f.confirmed(t)
	f.procFn = func(agent.Source) error { return errors.New("object missing") }

	err := f.svc.HandleIngestion(context.Background(), task, queue.Attempt{Retry: 0, MaxRetry: 1})
	require.Error(t, err)
	row, _ := f.docs.Get(context.Background(), "p1", "u1", doc.ID)
	assert.Equal(t, models.StatusQueued, row.ProcessingStatus)
	assert.Equal(t, "object missing", row.ProcessingError)

	err = f.svc.HandleIngestion(context.Background(), task, queue.Attempt{Retry: 1, MaxRetry: 1})
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, f.docs.status(doc.ID))

	// manual retry through confirm
	got, err := f.svc.ConfirmUpload(context.Background(), "p1", "u1", doc.S3Key)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.ProcessingStatus)
}

func TestHandleIngestionRequeuesOnShutdown(t *testing.T) {
	f := newFixture(t)
	doc, task := f.confirmed(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.procFn = func(agent.Source) error {
		cancel()
		return ctx.Err()
	}

	// even the last attempt must not mark an interrupted document failed
	err := f.svc.HandleIngestion(ctx, task, queue.Attempt{Retry: 3, MaxRetry: 3})
	require.ErrorIs(t, err, context.Canceled)
	row, _ := f.docs.Get(context.Background(), "p1", "u1", doc.ID)
	assert.Equal(t, models.StatusQueued, row.ProcessingStatus)
	assert.Empty(t, row.ProcessingError)

	// the redelivery picks it up normally
	f.procFn = nil
	require.NoError(t, f.svc.HandleIngestion(context.Background(), task, queue.Attempt{Retry: 3, MaxRetry: 3}))
	assert.Equal(t, models.StatusCompleted, f.docs.status(doc.ID))
}

func TestRetryDocumentRequeuesFailedURLSource(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.AddURLSource(context.Background(), "p1", "u1", "example.com")
	require.NoError(t, err)
	f.procFn = func(agent.Source) error { return errors.New("unreachable") }
	require.Error(t, f.svc.HandleIngestion(context.Background(), f.queue.tasks[0], queue.Attempt{Retry: 3, MaxRetry: 3}))
	require.Equal(t, models.StatusFailed, f.docs.status(doc.ID))

	got, err := f.svc.RetryDocument(context.Background(), "p1", "u1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.ProcessingStatus)
	assert.Empty(t, got.ProcessingError)
	require.Len(t, f.queue.tasks, 2)
	assert.Equal(t, "https://example.com", f.queue.tasks[1].SourceURL)

	_, err = f.svc.RetryDocument(context.Background(), "p1", "u2", doc.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRetryDocumentIgnoresCompletedDocument(t *testing.T) {
	f := newFixture(t)
	doc, task := f.confirmed(t)
	require.NoError(t, f.svc.HandleIngestion(context.Background(), task, queue.Attempt{MaxRetry: 3}))

	got, err := f.svc.RetryDocument(context.Background(), "p1", "u1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.ProcessingStatus)
	assert.Len(t, f.queue.tasks, 1)
}

func TestHandleIngestionResumesAfterCrash(t *testing.T) {
	f := newFixture(t)
	doc, task := f.confirmed(t)
	_, err := f.docs.UpdateStatus(context.Background(), doc, models.StatusQueued, models.StatusProcessing, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleIngestion(context.Background(), task, queue.Attempt{Retry: 1, MaxRetry: 3}))
	assert.Equal(t, models.StatusCompleted, f.docs.status(doc.ID))
}

func TestHandleIngestionDropsDeletedDocument(t *testing.T) {
	f := newFixture(t)
	doc, task := f.confirmed(t)
	_, err := f.svc.DeleteDocument(context.Background(), "p1", "u1", doc.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleIngestion(context.Background(), task, queue.Attempt{MaxRetry: 3}))
	assert.Empty(t, f.procs)
	assert.Zero(t, f.docs.count())
}

func TestHandleIngestionDoesNotResurrectDocumentDeletedMidway(t *testing.T) {
	f := newFixture(t)
	doc, task := f.confirmed(t)
	f.procFn = func(agent.Source) error {
		_, err := f.docs.Delete(context.Background(), "p1", "u1", doc.ID)
		return err
	}

	require.NoError(t, f.svc.HandleIngestion(context.Background(), task, queue.Attempt{MaxRetry: 3}))
	assert.Zero(t, f.docs.count())
}

func TestHandleIngestionURLSource(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.AddURLSource(context.Background(), "p1", "u1", "example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleIngestion(context.Background(), f.queue.tasks[0], queue.Attempt{MaxRetry: 3}))
	assert.Equal(t, models.StatusCompleted, f.docs.status(doc.ID))
	require.Len(t, f.procs, 1)
	assert.Equal(t, "https://example.com", f.procs[0].URL)
}

func TestObjectKeyExtension(t *testing.T) {
	assert.Regexp(t, `^projects/p/documents/[0-9a-f-]{36}\.gz$`, objectKey("p", "archive.tar.gz"))
	assert.Regexp(t, `^projects/p/documents/[0-9a-f-]{36}$`, objectKey("p", "trailing."))
	assert.NotEqual(t, objectKey("p", "a.pdf"), objectKey("p", "a.pdf"))
}
