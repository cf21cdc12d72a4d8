package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
	"github.com/feichai0017/project-assistant/pkg/storage/minio"
	"github.com/feichai0017/project-assistant/pkg/storage/s3"
)

// StorageType 定义存储类型
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage is the blob store as seen by the ingestion coordinator. Clients
// upload directly with the presigned URL; the service never streams bytes.
type Storage interface {
	// PresignPut returns a URL that accepts one PUT of key with contentType until it expires.
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	// Delete removes key.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key has been uploaded.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorage 创建存储实例的工厂方法
func NewStorage(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeS3:
		return s3.NewS3Storage(ctx, s3.Config{
			BucketName: cfg.BucketName,
			Region:     cfg.Region,
			Endpoint:   cfg.Endpoint,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
		}, log)
	case StorageTypeMinio:
		return minio.NewMinioStorage(ctx, minio.Config{
			BucketName: cfg.BucketName,
			Region:     cfg.Region,
			Endpoint:   cfg.Endpoint,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			UseSSL:     cfg.UseSSL,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
