package service

import (
	"Mediahub/internal/api/dto"
	"Mediahub/internal/model"
	"Mediahub/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// ObjectStorage 对象存储网关能力，由 internal/pkg/minio 提供实现
type ObjectStorage interface {
	PresignUpload(ctx context.Context, bucket, object string) (string, error)
	PresignDownload(ctx context.Context, bucket, object string) (string, error)
	ObjectExists(ctx context.Context, bucket, object string) (bool, error)
	DeleteObject(ctx context.Context, bucket, object string) error
	EnsureBucket(ctx context.Context, bucket string) error
}

// ChangeNotifier 资源变更通知，发送失败不影响已提交的持久化结果
type ChangeNotifier interface {
	Notify(ctx context.Context, record *dto.MediaRecordDTO, operation dto.CrudOperation) error
}

// URLRequest 调用方声明需要哪些预签名链接
type URLRequest struct {
	Upload   bool
	Download bool
}

type MediaRecordService interface {
	GetAll(ctx context.Context, urls URLRequest) ([]*dto.MediaRecordDTO, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID, urls URLRequest) ([]*dto.MediaRecordDTO, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, urls URLRequest) ([]*dto.MediaRecordDTO, error)
	GetForUser(ctx context.Context, creatorID uuid.UUID, urls URLRequest) ([]*dto.MediaRecordDTO, error)
	GetByContentIDs(ctx context.Context, contentIDs []uuid.UUID, urls URLRequest) ([][]*dto.MediaRecordDTO, error)
	GetForCourses(ctx context.Context, courseIDs []uuid.UUID, urls URLRequest) ([][]*dto.MediaRecordDTO, error)
	Create(ctx context.Context, creatorID uuid.UUID, input *dto.CreateMediaRecordDTO, urls URLRequest) (*dto.MediaRecordDTO, error)
	Update(ctx context.Context, id uuid.UUID, input *dto.UpdateMediaRecordDTO, urls URLRequest) (*dto.MediaRecordDTO, error)
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	SetMediaRecordsForCourse(ctx context.Context, courseID uuid.UUID, mediaRecordIDs []uuid.UUID) ([]*dto.MediaRecordDTO, error)
	SetLinkedMediaRecordsForContent(ctx context.Context, contentID uuid.UUID, mediaRecordIDs []uuid.UUID) ([]*dto.MediaRecordDTO, error)
	RemoveContentIDs(ctx context.Context, event *dto.ContentChangeEvent) error
}

type mediaRecordServiceImpl struct {
	repo     repository.MediaRecordRepo
	storage  ObjectStorage
	notifier ChangeNotifier
	now      func() time.Time
}

func NewMediaRecordService(repo repository.MediaRecordRepo, storage ObjectStorage, notifier ChangeNotifier) MediaRecordService {
	return &mediaRecordServiceImpl{
		repo:     repo,
		storage:  storage,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *mediaRecordServiceImpl) GetAll(ctx context.Context, urls URLRequest) ([]*dto.MediaRecordDTO, error) {
	records, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.toDTOsWithURLs(ctx, records, urls)
}

// GetByIDs 严格批量查询，任一 id 不存在则整体失败并列出全部缺失 id
func (s *mediaRecordServiceImpl) GetByIDs(ctx context.Context, ids []uuid.UUID, urls URLRequest) ([]*dto.MediaRecordDTO, error) {
	records, err := s.getExisting(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.toDTOsWithURLs(ctx, records, urls)
}

// FindByIDs 宽松批量查询，缺失的 id 在对应位置返回 nil
func (s *mediaRecordServiceImpl) FindByIDs(ctx context.Context, ids []uuid.UUID, urls URLRequest) ([]*dto.MediaRecordDTO, error) {
	records, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.MediaRecord, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	result := make([]*dto.MediaRecordDTO, len(ids))
	for i, id := range ids {
		record, ok := byID[id]
		if !ok {
			continue
		}
		if err = s.fillURLs(ctx, record, urls); err != nil {
			return nil, err
		}
		result[i] = toMediaRecordDTO(record)
	}
	return result, nil
}

func (s *mediaRecordServiceImpl) GetForUser(ctx context.Context, creatorID uuid.UUID, urls URLRequest) ([]*dto.MediaRecordDTO, error) {
	records, err := s.repo.GetByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return s.toDTOsWithURLs(ctx, records, urls)
}

// GetByContentIDs 广播查询：一次取出候选并集，再按内容 id 逐槽位分组，
// 结果与入参顺序对齐，无匹配的槽位为空列表
func (s *mediaRecordServiceImpl) GetByContentIDs(ctx context.Context, contentIDs []uuid.UUID, urls URLRequest) ([][]*dto.MediaRecordDTO, error) {
	records, err := s.repo.GetByContentIDs(ctx, contentIDs)
	if err != nil {
		return nil, err
	}
	return s.partition(ctx, records, contentIDs, urls, (*model.MediaRecord).HasContent)
}

// GetForCourses 与 GetByContentIDs 相同的广播语义，按课程 id 分组
func (s *mediaRecordServiceImpl) GetForCourses(ctx context.Context, courseIDs []uuid.UUID, urls URLRequest) ([][]*dto.MediaRecordDTO, error) {
	records, err := s.repo.GetByCourseIDs(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	return s.partition(ctx, records, courseIDs, urls, (*model.MediaRecord).HasCourse)
}

// Create 新建记录：创建者一律取当前登录用户，忽略请求体中的 creator_id
func (s *mediaRecordServiceImpl) Create(ctx context.Context, creatorID uuid.UUID, input *dto.CreateMediaRecordDTO, urls URLRequest) (*dto.MediaRecordDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return nil, ErrParamInvalid
	}
	if !input.Type.Valid() {
		return nil, ErrMediaTypeInvalid
	}

	id := uuid.New()
	record := &model.MediaRecord{
		ID:        id,
		Name:      name,
		CreatorID: creatorID,
		Type:      input.Type,
		Contents:  contentRows(id, dedupe(input.ContentIDs)),
		Courses:   courseRows(id, dedupe(input.CourseIDs)),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.notify(ctx, record, dto.OperationCreate)

	if err := s.fillURLs(ctx, record, urls); err != nil {
		return nil, err
	}
	return toMediaRecordDTO(record), nil
}

// Update 整体替换 name/type/content_ids，创建者保留原值
// course_ids 为 nil 时保留既有课程关联
func (s *mediaRecordServiceImpl) Update(ctx context.Context, id uuid.UUID, input *dto.UpdateMediaRecordDTO, urls URLRequest) (*dto.MediaRecordDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return nil, ErrParamInvalid
	}
	if !input.Type.Valid() {
		return nil, ErrMediaTypeInvalid
	}

	prior, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewMediaRecordsNotFoundError(id)
		}
		return nil, err
	}

	courses := prior.Courses
	if input.CourseIDs != nil {
		courses = courseRows(id, dedupe(input.CourseIDs))
	}

	record := &model.MediaRecord{
		ID:        id,
		Name:      name,
		CreatorID: prior.CreatorID,
		Type:      input.Type,
		Contents:  contentRows(id, dedupe(input.ContentIDs)),
		Courses:   courses,
	}

	if err = s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.notify(ctx, record, dto.OperationUpdate)

	if err = s.fillURLs(ctx, record, urls); err != nil {
		return nil, err
	}
	return toMediaRecordDTO(record), nil
}

// Delete 删除记录及其进度行，并尽力清理对象存储中的文件
// 数据库是记录存在性的唯一依据：行删掉之后对象存储侧的失败只记日志，
// 残留文件交由巡检任务回收
func (s *mediaRecordServiceImpl) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, NewMediaRecordsNotFoundError(id)
		}
		return uuid.Nil, err
	}

	// 行还在时先解析存储坐标
	bucket := record.Type.BucketName()
	object := record.ID.String()

	if err = s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, NewMediaRecordsNotFoundError(id)
		}
		return uuid.Nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, bucket, object)
	if err != nil {
		log.ErrorContext(ctx, "failed to check media object existence, leaving orphan for reconciliation",
			"bucket", bucket, "object", object, "err", err)
	} else if exists {
		if err = s.storage.DeleteObject(ctx, bucket, object); err != nil {
			log.ErrorContext(ctx, "failed to delete media object, leaving orphan for reconciliation",
				"bucket", bucket, "object", object, "err", err)
		}
	}

	s.notify(ctx, record, dto.OperationDelete)

	return id, nil
}

// SetMediaRecordsForCourse 声明式替换：调用后恰好给定的记录与该课程关联，
// 之前关联但未出现在新集合中的记录会被解除关联
func (s *mediaRecordServiceImpl) SetMediaRecordsForCourse(ctx context.Context, courseID uuid.UUID, mediaRecordIDs []uuid.UUID) ([]*dto.MediaRecordDTO, error) {
	requested, err := s.getExisting(ctx, dedupe(mediaRecordIDs))
	if err != nil {
		return nil, err
	}

	requestedSet := make(map[uuid.UUID]struct{}, len(requested))
	for _, record := range requested {
		requestedSet[record.ID] = struct{}{}
	}

	current, err := s.repo.GetByCourseIDs(ctx, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	for _, record := range current {
		if _, ok := requestedSet[record.ID]; ok {
			continue
		}
		kept := make([]model.MediaRecordCourse, 0, len(record.Courses))
		for _, c := range record.Courses {
			if c.CourseID != courseID {
				kept = append(kept, c)
			}
		}
		if err = s.repo.ReplaceCourses(ctx, record.ID, kept); err != nil {
			return nil, err
		}
	}

	result := make([]*dto.MediaRecordDTO, 0, len(requested))
	for _, record := range requested {
		if !record.HasCourse(courseID) {
			record.Courses = append(record.Courses, model.MediaRecordCourse{
				MediaRecordID: record.ID,
				CourseID:      courseID,
			})
			if err = s.repo.ReplaceCourses(ctx, record.ID, record.Courses); err != nil {
				return nil, err
			}
		}
		result = append(result, toMediaRecordDTO(record))
	}
	return result, nil
}

// SetLinkedMediaRecordsForContent 与课程版本相同的声明式替换语义，针对内容关联
func (s *mediaRecordServiceImpl) SetLinkedMediaRecordsForContent(ctx context.Context, contentID uuid.UUID, mediaRecordIDs []uuid.UUID) ([]*dto.MediaRecordDTO, error) {
	requested, err := s.getExisting(ctx, dedupe(mediaRecordIDs))
	if err != nil {
		return nil, err
	}

	requestedSet := make(map[uuid.UUID]struct{}, len(requested))
	for _, record := range requested {
		requestedSet[record.ID] = struct{}{}
	}

	current, err := s.repo.GetByContentIDs(ctx, []uuid.UUID{contentID})
	if err != nil {
		return nil, err
	}
	for _, record := range current {
		if _, ok := requestedSet[record.ID]; ok {
			continue
		}
		record.Contents = removeContent(record.Contents, map[uuid.UUID]struct{}{contentID: {}})
		if err = s.repo.ReplaceContents(ctx, record.ID, record.Contents); err != nil {
			return nil, err
		}
	}

	result := make([]*dto.MediaRecordDTO, 0, len(requested))
	for _, record := range requested {
		if !record.HasContent(contentID) {
			record.Contents = append(record.Contents, model.MediaRecordContent{
				MediaRecordID: record.ID,
				ContentID:     contentID,
				Position:      len(record.Contents),
			})
			if err = s.repo.ReplaceContents(ctx, record.ID, record.Contents); err != nil {
				return nil, err
			}
		}
		result = append(result, toMediaRecordDTO(record))
	}
	return result, nil
}

// RemoveContentIDs 消费内容生命周期事件，仅处理 DELETE 且 id 列表非空的事件，
// 只有实际发生变化的记录才会落库并发布更新通知
func (s *mediaRecordServiceImpl) RemoveContentIDs(ctx context.Context, event *dto.ContentChangeEvent) error {
	if event == nil || event.Operation == "" || event.ContentIDs == nil {
		return fmt.Errorf("%w: content change event missing required fields", ErrParamInvalid)
	}
	if event.Operation != dto.OperationDelete || len(event.ContentIDs) == 0 {
		return nil
	}

	records, err := s.repo.GetByContentIDs(ctx, event.ContentIDs)
	if err != nil {
		return err
	}

	removed := make(map[uuid.UUID]struct{}, len(event.ContentIDs))
	for _, id := range event.ContentIDs {
		removed[id] = struct{}{}
	}

	for _, record := range records {
		kept := removeContent(record.Contents, removed)
		if len(kept) == len(record.Contents) {
			continue
		}
		record.Contents = kept
		if err = s.repo.ReplaceContents(ctx, record.ID, kept); err != nil {
			return err
		}
		s.notify(ctx, record, dto.OperationUpdate)
	}
	return nil
}

// getExisting 严格批量读取，保持入参顺序，缺失 id 全部列入错误
func (s *mediaRecordServiceImpl) getExisting(ctx context.Context, ids []uuid.UUID) ([]*model.MediaRecord, error) {
	records, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.MediaRecord, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	if len(byID) != len(ids) {
		var missing []uuid.UUID
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, NewMediaRecordsNotFoundError(missing...)
	}

	ordered := make([]*model.MediaRecord, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}
	return ordered, nil
}

// fillURLs 按调用方声明补齐预签名链接，过期则重签并把新链接写回存储
// 上传链接签发前先确保目标桶存在
func (s *mediaRecordServiceImpl) fillURLs(ctx context.Context, record *model.MediaRecord, urls URLRequest) error {
	if !urls.Upload && !urls.Download {
		return nil
	}

	bucket := record.Type.BucketName()
	object := record.ID.String()
	changed := false

	if urls.Upload && !PresignedURLFresh(record.UploadURL, s.now()) {
		if err := s.storage.EnsureBucket(ctx, bucket); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		u, err := s.storage.PresignUpload(ctx, bucket, object)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		record.UploadURL = &u
		changed = true
	}

	if urls.Download && !PresignedURLFresh(record.DownloadURL, s.now()) {
		u, err := s.storage.PresignDownload(ctx, bucket, object)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		record.DownloadURL = &u
		changed = true
	}

	if changed {
		if err := s.repo.SaveURLs(ctx, record.ID, record.UploadURL, record.DownloadURL); err != nil {
			log.WarnContext(ctx, "failed to persist regenerated presigned urls",
				"media_record_id", record.ID, "err", err)
		}
	}
	return nil
}

func (s *mediaRecordServiceImpl) toDTOsWithURLs(ctx context.Context, records []*model.MediaRecord, urls URLRequest) ([]*dto.MediaRecordDTO, error) {
	result := make([]*dto.MediaRecordDTO, 0, len(records))
	for _, record := range records {
		if err := s.fillURLs(ctx, record, urls); err != nil {
			return nil, err
		}
		result = append(result, toMediaRecordDTO(record))
	}
	return result, nil
}

func (s *mediaRecordServiceImpl) partition(
	ctx context.Context,
	records []*model.MediaRecord,
	ids []uuid.UUID,
	urls URLRequest,
	member func(*model.MediaRecord, uuid.UUID) bool,
) ([][]*dto.MediaRecordDTO, error) {
	result := make([][]*dto.MediaRecordDTO, len(ids))
	for i := range result {
		result[i] = []*dto.MediaRecordDTO{}
	}

	for _, record := range records {
		if err := s.fillURLs(ctx, record, urls); err != nil {
			return nil, err
		}
		d := toMediaRecordDTO(record)
		for i, id := range ids {
			if member(record, id) {
				result[i] = append(result[i], d)
			}
		}
	}
	return result, nil
}

// notify 通知失败不回滚已提交的变更，只记日志
func (s *mediaRecordServiceImpl) notify(ctx context.Context, record *model.MediaRecord, operation dto.CrudOperation) {
	if err := s.notifier.Notify(ctx, toMediaRecordDTO(record), operation); err != nil {
		log.ErrorContext(ctx, "media record change notification failed",
			"media_record_id", record.ID, "operation", operation, "err", err)
	}
}

func toMediaRecordDTO(record *model.MediaRecord) *dto.MediaRecordDTO {
	var d dto.MediaRecordDTO
	_ = copier.Copy(&d, record)
	d.ContentIDs = record.ContentIDs()
	d.CourseIDs = record.CourseIDs()
	return &d
}

func contentRows(recordID uuid.UUID, contentIDs []uuid.UUID) []model.MediaRecordContent {
	rows := make([]model.MediaRecordContent, 0, len(contentIDs))
	for i, id := range contentIDs {
		rows = append(rows, model.MediaRecordContent{
			MediaRecordID: recordID,
			ContentID:     id,
			Position:      i,
		})
	}
	return rows
}

func courseRows(recordID uuid.UUID, courseIDs []uuid.UUID) []model.MediaRecordCourse {
	rows := make([]model.MediaRecordCourse, 0, len(courseIDs))
	for _, id := range courseIDs {
		rows = append(rows, model.MediaRecordCourse{
			MediaRecordID: recordID,
			CourseID:      id,
		})
	}
	return rows
}

// removeContent 过滤掉给定集合中的内容关联并重排 Position
func removeContent(contents []model.MediaRecordContent, removed map[uuid.UUID]struct{}) []model.MediaRecordContent {
	kept := make([]model.MediaRecordContent, 0, len(contents))
	for _, c := range contents {
		if _, ok := removed[c.ContentID]; ok {
			continue
		}
		c.Position = len(kept)
		kept = append(kept, c)
	}
	return kept
}

// dedupe 去重并保持首次出现的顺序
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
