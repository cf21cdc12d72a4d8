package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/project-assistant/api/middleware"
	"github.com/feichai0017/project-assistant/internal/service/document"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

type DocumentHandler struct {
	service document.DocumentManager
	logger  logger.Logger
}

type UploadURLRequest struct {
	Filename string `json:"filename" binding:"required"`
	FileSize int64  `json:"file_size" binding:"gte=0"`
	FileType string `json:"file_type" binding:"required"`
}

type ConfirmRequest struct {
	S3Key string `json:"s3_key" binding:"required"`
}

type AddURLRequest struct {
	URL string `json:"url" binding:"required"`
}

func NewDocumentHandler(service document.DocumentManager, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  log,
	}
}

// RequestUploadURL 生成预签名上传地址
func (h *DocumentHandler) RequestUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := bindJSON(c, "request upload", &req); err != nil {
		handleError(c, h.logger, err)
		return
	}

	ticket, err := h.service.RequestUpload(c.Request.Context(), document.UploadRequest{
		ProjectID: c.Param("project_id"),
		OwnerID:   middleware.OwnerID(c),
		Filename:  req.Filename,
		FileSize:  req.FileSize,
		FileType:  req.FileType,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Upload URL generated successfully", ticket)
}

func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	var req ConfirmRequest
	if err := bindJSON(c, "confirm upload", &req); err != nil {
		handleError(c, h.logger, err)
		return
	}

	doc, err := h.service.ConfirmUpload(c.Request.Context(), c.Param("project_id"), middleware.OwnerID(c), req.S3Key)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Upload confirmed, processing queued", doc)
}

func (h *DocumentHandler) AddURL(c *gin.Context) {
	var req AddURLRequest
	if err := bindJSON(c, "add url", &req); err != nil {
		handleError(c, h.logger, err)
		return
	}

	doc, err := h.service.AddURLSource(c.Request.Context(), c.Param("project_id"), middleware.OwnerID(c), req.URL)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "URL added successfully", doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context(), c.Param("project_id"), middleware.OwnerID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Project files retrieved successfully", docs)
}

// Get returns one document; clients poll it for the processing status.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.GetDocument(c.Request.Context(), c.Param("project_id"), middleware.OwnerID(c), c.Param("file_id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "File retrieved successfully", doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	doc, err := h.service.DeleteDocument(c.Request.Context(), c.Param("project_id"), middleware.OwnerID(c), c.Param("file_id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "File deleted successfully", doc)
}

// Retry re-queues a failed document; url sources have no key to confirm.
func (h *DocumentHandler) Retry(c *gin.Context) {
	doc, err := h.service.RetryDocument(c.Request.Context(), c.Param("project_id"), middleware.OwnerID(c), c.Param("file_id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Processing queued", doc)
}
