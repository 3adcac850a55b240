package service

import (
	"Mediahub/internal/api/dto"
	"Mediahub/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeMediaRepo 基于内存 map 的仓储替身
type fakeMediaRepo struct {
	records      map[uuid.UUID]*model.MediaRecord
	saveURLCalls int
	err          error
}

func newFakeMediaRepo(records ...*model.MediaRecord) *fakeMediaRepo {
	repo := &fakeMediaRepo{records: make(map[uuid.UUID]*model.MediaRecord)}
	for _, record := range records {
		repo.records[record.ID] = record
	}
	return repo
}

func (s *fakeMediaRepo) GetAll(ctx context.Context) ([]*model.MediaRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]*model.MediaRecord, 0, len(s.records))
	for _, record := range s.records {
		result = append(result, record)
	}
	return result, nil
}

func (s *fakeMediaRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.MediaRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	record, ok := s.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *fakeMediaRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.MediaRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]*model.MediaRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := s.records[id]; ok {
			result = append(result, record)
		}
	}
	return result, nil
}

func (s *fakeMediaRepo) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]*model.MediaRecord, error) {
	result := make([]*model.MediaRecord, 0)
	for _, record := range s.records {
		if record.CreatorID == creatorID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (s *fakeMediaRepo) GetByContentIDs(ctx context.Context, contentIDs []uuid.UUID) ([]*model.MediaRecord, error) {
	result := make([]*model.MediaRecord, 0)
	for _, record := range s.records {
		for _, id := range contentIDs {
			if record.HasContent(id) {
				result = append(result, record)
				break
			}
		}
	}
	return result, nil
}

func (s *fakeMediaRepo) GetByCourseIDs(ctx context.Context, courseIDs []uuid.UUID) ([]*model.MediaRecord, error) {
	result := make([]*model.MediaRecord, 0)
	for _, record := range s.records {
		for _, id := range courseIDs {
			if record.HasCourse(id) {
				result = append(result, record)
				break
			}
		}
	}
	return result, nil
}

func (s *fakeMediaRepo) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	existing := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (s *fakeMediaRepo) Create(ctx context.Context, record *model.MediaRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records[record.ID] = record
	return nil
}

func (s *fakeMediaRepo) Update(ctx context.Context, record *model.MediaRecord) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.records[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.records[record.ID] = record
	return nil
}

func (s *fakeMediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.records[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *fakeMediaRepo) SaveURLs(ctx context.Context, id uuid.UUID, uploadURL, downloadURL *string) error {
	s.saveURLCalls++
	if record, ok := s.records[id]; ok {
		record.UploadURL = uploadURL
		record.DownloadURL = downloadURL
	}
	return nil
}

func (s *fakeMediaRepo) ReplaceContents(ctx context.Context, id uuid.UUID, contents []model.MediaRecordContent) error {
	record, ok := s.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	record.Contents = contents
	return nil
}

func (s *fakeMediaRepo) ReplaceCourses(ctx context.Context, id uuid.UUID, courses []model.MediaRecordCourse) error {
	record, ok := s.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	record.Courses = courses
	return nil
}

// fakeStorage 记录网关调用次数，可注入各类故障
type fakeStorage struct {
	uploadCalls   int
	downloadCalls int
	deleted       []string
	existing      map[string]bool
	presignErr    error
	ensureErr     error
	existsErr     error
	deleteErr     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{existing: make(map[string]bool)}
}

func objectKey(bucket, object string) string {
	return bucket + "/" + object
}

func (s *fakeStorage) PresignUpload(ctx context.Context, bucket, object string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.uploadCalls++
	return fmt.Sprintf("https://minio.test/%s/%s?X-Amz-Date=%s&X-Amz-Expires=900&X-Amz-Signature=up%d",
		bucket, object, time.Now().UTC().Format(amzDateLayout), s.uploadCalls), nil
}

func (s *fakeStorage) PresignDownload(ctx context.Context, bucket, object string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.downloadCalls++
	return fmt.Sprintf("https://minio.test/%s/%s?X-Amz-Date=%s&X-Amz-Expires=900&X-Amz-Signature=down%d",
		bucket, object, time.Now().UTC().Format(amzDateLayout), s.downloadCalls), nil
}

func (s *fakeStorage) ObjectExists(ctx context.Context, bucket, object string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.existing[objectKey(bucket, object)], nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, bucket, object string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.existing, objectKey(bucket, object))
	s.deleted = append(s.deleted, objectKey(bucket, object))
	return nil
}

func (s *fakeStorage) EnsureBucket(ctx context.Context, bucket string) error {
	return s.ensureErr
}

type notification struct {
	recordID  uuid.UUID
	operation dto.CrudOperation
}

// fakeNotifier 按序记录发出的变更通知
type fakeNotifier struct {
	events []notification
	err    error
}

func (s *fakeNotifier) Notify(ctx context.Context, record *dto.MediaRecordDTO, operation dto.CrudOperation) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, notification{recordID: record.ID, operation: operation})
	return nil
}

// fakeProgressRepo 进度仓储替身，组合键为 record+user
type fakeProgressRepo struct {
	rows map[string]*model.MediaRecordProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: make(map[string]*model.MediaRecordProgress)}
}

func progressKey(mediaRecordID, userID uuid.UUID) string {
	return mediaRecordID.String() + ":" + userID.String()
}

func (s *fakeProgressRepo) Get(ctx context.Context, mediaRecordID, userID uuid.UUID) (*model.MediaRecordProgress, error) {
	row, ok := s.rows[progressKey(mediaRecordID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *fakeProgressRepo) Upsert(ctx context.Context, progress *model.MediaRecordProgress) error {
	copied := *progress
	s.rows[progressKey(progress.MediaRecordID, progress.UserID)] = &copied
	return nil
}
