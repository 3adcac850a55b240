package job

import (
	"Mediahub/internal/model"
	"Mediahub/internal/pkg/minio"
	"Mediahub/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// orphanGracePeriod 新上传的对象在该窗口内不视为孤儿，
// 避免误删记录创建与首次上传之间的对象
const orphanGracePeriod = 24 * time.Hour

// OrphanBlobJob 清理对象存储中没有对应记录行的遗留对象
type OrphanBlobJob struct {
	storage   *minio.Storage
	mediaRepo repository.MediaRecordRepo
}

func NewOrphanBlobJob(storage *minio.Storage, mediaRepo repository.MediaRecordRepo) *OrphanBlobJob {
	return &OrphanBlobJob{
		storage:   storage,
		mediaRepo: mediaRepo,
	}
}

func (s *OrphanBlobJob) Run() {
	ctx := context.Background()
	log.Info("start orphan blob cleanup job")

	cutoff := time.Now().Add(-orphanGracePeriod)
	total := 0
	for _, mediaType := range model.AllMediaTypes() {
		count, err := s.cleanBucket(ctx, mediaType.BucketName(), cutoff)
		if err != nil {
			log.Error("failed to clean bucket", "bucket", mediaType.BucketName(), "err", err)
			continue
		}
		total += count
	}

	if total > 0 {
		log.Info("orphan blob cleanup job finished", "cleaned_count", total)
	}
}

func (s *OrphanBlobJob) cleanBucket(ctx context.Context, bucket string, cutoff time.Time) (int, error) {
	objects, err := s.storage.ListObjects(ctx, bucket)
	if err != nil {
		return 0, err
	}
	if len(objects) == 0 {
		return 0, nil
	}

	candidates := make(map[uuid.UUID]string, len(objects))
	ids := make([]uuid.UUID, 0, len(objects))
	for _, object := range objects {
		if object.LastModified.After(cutoff) {
			continue
		}
		id, err := uuid.Parse(object.Key)
		if err != nil {
			// 桶内出现非记录键的对象，留给人工处理
			log.Warn("unexpected object key in bucket", "bucket", bucket, "key", object.Key)
			continue
		}
		candidates[id] = object.Key
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	existing, err := s.mediaRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range existing {
		delete(candidates, id)
	}

	count := 0
	for id, key := range candidates {
		if err = s.storage.DeleteObject(ctx, bucket, key); err != nil {
			log.Error("failed to delete orphan blob", "bucket", bucket, "key", key, "err", err)
			continue
		}
		count++
		log.Info("deleted orphan blob", "bucket", bucket, "record_id", id)
	}
	return count, nil
}
