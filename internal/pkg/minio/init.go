package minio

import (
	"Mediahub/internal/api/config"
	"Mediahub/internal/model"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// Client 全局 MinIO 客户端实例
	Client *minio.Client
)

// Init 初始化 MinIO 客户端并巡检各媒体类型的存储桶
func Init() error {
	cfg := config.Cfg.MinIO

	var endpoint string
	var useSSL bool
	if cfg.InternalEndpoint != "" {
		endpoint = cfg.InternalEndpoint
		useSSL = cfg.InternalUseSSL
	} else {
		endpoint = cfg.ExternalEndpoint
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx := context.Background()
	_, err = client.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	Client = client

	return EnsureTypeBuckets(ctx)
}

// EnsureTypeBuckets 为每种媒体类型补齐存储桶，可重复执行
func EnsureTypeBuckets(ctx context.Context) error {
	storage := NewStorage(Client)
	for _, mediaType := range model.AllMediaTypes() {
		bucket := mediaType.BucketName()
		if err := storage.EnsureBucket(ctx, bucket); err != nil {
			return fmt.Errorf("failed to ensure bucket %s: %w", bucket, err)
		}
	}
	log.Info("MinIO media type buckets ready")
	return nil
}
