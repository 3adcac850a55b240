package minio

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

// PresignExpiry 预签名链接有效期，上传与下载共用同一窗口
const PresignExpiry = 15 * time.Minute

// Storage 对象存储网关，负责预签名链接签发和对象管理
type Storage struct {
	client *minio.Client
}

func NewStorage(client *minio.Client) *Storage {
	return &Storage{client: client}
}

// ObjectInfo 巡检任务用到的对象元信息
type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

// PresignUpload 签发限时 PUT 链接
func (s *Storage) PresignUpload(ctx context.Context, bucket, object string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, object, PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload url: %w", err)
	}
	return u.String(), nil
}

// PresignDownload 签发限时 GET 链接
func (s *Storage) PresignDownload(ctx context.Context, bucket, object string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, object, PresignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign download url: %w", err)
	}
	return u.String(), nil
}

// ObjectExists 判断对象是否存在，NoSuchKey 不视为错误
func (s *Storage) ObjectExists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// DeleteObject 删除对象
func (s *Storage) DeleteObject(ctx context.Context, bucket, object string) error {
	err := s.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// EnsureBucket 确保存储桶存在，不存在则创建
func (s *Storage) EnsureBucket(ctx context.Context, bucket string) error {
	found, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if found {
		return nil
	}
	if err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ListObjects 列出桶内全部对象
func (s *Storage) ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		objects = append(objects, ObjectInfo{Key: obj.Key, LastModified: obj.LastModified})
	}
	return objects, nil
}
