package repository

import (
	"Mediahub/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaRecordRepo interface {
	GetAll(ctx context.Context) ([]*model.MediaRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.MediaRecord, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.MediaRecord, error)
	GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]*model.MediaRecord, error)
	GetByContentIDs(ctx context.Context, contentIDs []uuid.UUID) ([]*model.MediaRecord, error)
	GetByCourseIDs(ctx context.Context, courseIDs []uuid.UUID) ([]*model.MediaRecord, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	Create(ctx context.Context, record *model.MediaRecord) error
	Update(ctx context.Context, record *model.MediaRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	SaveURLs(ctx context.Context, id uuid.UUID, uploadURL, downloadURL *string) error
	ReplaceContents(ctx context.Context, id uuid.UUID, contents []model.MediaRecordContent) error
	ReplaceCourses(ctx context.Context, id uuid.UUID, courses []model.MediaRecordCourse) error
}

type MediaRecordRepoImpl struct {
	db *gorm.DB
}

func NewMediaRecordRepo(db *gorm.DB) MediaRecordRepo {
	return &MediaRecordRepoImpl{
		db: db,
	}
}

// preload 统一预加载关联，内容关联按 Position 排序
func (s MediaRecordRepoImpl) preload(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Contents", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Courses")
}

func (s MediaRecordRepoImpl) GetAll(ctx context.Context) ([]*model.MediaRecord, error) {
	var records []*model.MediaRecord
	err := s.preload(ctx).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s MediaRecordRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*model.MediaRecord, error) {
	var record model.MediaRecord
	err := s.preload(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s MediaRecordRepoImpl) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.MediaRecord, error) {
	var records []*model.MediaRecord
	err := s.preload(ctx).Where("id IN ?", ids).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s MediaRecordRepoImpl) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]*model.MediaRecord, error) {
	var records []*model.MediaRecord
	err := s.preload(ctx).Where("creator_id = ?", creatorID).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetByContentIDs 一次取出与任一内容 id 关联的记录并集
func (s MediaRecordRepoImpl) GetByContentIDs(ctx context.Context, contentIDs []uuid.UUID) ([]*model.MediaRecord, error) {
	var records []*model.MediaRecord
	sub := s.db.Model(&model.MediaRecordContent{}).
		Select("media_record_id").
		Where("content_id IN ?", contentIDs)
	err := s.preload(ctx).Where("id IN (?)", sub).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetByCourseIDs 一次取出与任一课程 id 关联的记录并集
func (s MediaRecordRepoImpl) GetByCourseIDs(ctx context.Context, courseIDs []uuid.UUID) ([]*model.MediaRecord, error) {
	var records []*model.MediaRecord
	sub := s.db.Model(&model.MediaRecordCourse{}).
		Select("media_record_id").
		Where("course_id IN ?", courseIDs)
	err := s.preload(ctx).Where("id IN (?)", sub).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ExistingIDs 返回给定 id 中实际存在的部分
func (s MediaRecordRepoImpl) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var existing []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.MediaRecord{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (s MediaRecordRepoImpl) Create(ctx context.Context, record *model.MediaRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// Update 整体替换：删除旧的关联行后重建，主记录按列覆盖
func (s MediaRecordRepoImpl) Update(ctx context.Context, record *model.MediaRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_record_id = ?", record.ID).Delete(&model.MediaRecordContent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_record_id = ?", record.ID).Delete(&model.MediaRecordCourse{}).Error; err != nil {
			return err
		}
		err := tx.Model(&model.MediaRecord{}).Where("id = ?", record.ID).
			Select("name", "type", "upload_url", "download_url").
			Updates(map[string]interface{}{
				"name":         record.Name,
				"type":         record.Type,
				"upload_url":   record.UploadURL,
				"download_url": record.DownloadURL,
			}).Error
		if err != nil {
			return err
		}
		if len(record.Contents) > 0 {
			if err = tx.Create(&record.Contents).Error; err != nil {
				return err
			}
		}
		if len(record.Courses) > 0 {
			if err = tx.Create(&record.Courses).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 级联删除关联行与进度行
func (s MediaRecordRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_record_id = ?", id).Delete(&model.MediaRecordContent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_record_id = ?", id).Delete(&model.MediaRecordCourse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_record_id = ?", id).Delete(&model.MediaRecordProgress{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.MediaRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SaveURLs 把重新签发的预签名链接写回存储
func (s MediaRecordRepoImpl) SaveURLs(ctx context.Context, id uuid.UUID, uploadURL, downloadURL *string) error {
	return s.db.WithContext(ctx).Model(&model.MediaRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"upload_url":   uploadURL,
			"download_url": downloadURL,
		}).Error
}

// ReplaceContents 整体替换某记录的内容关联
func (s MediaRecordRepoImpl) ReplaceContents(ctx context.Context, id uuid.UUID, contents []model.MediaRecordContent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_record_id = ?", id).Delete(&model.MediaRecordContent{}).Error; err != nil {
			return err
		}
		if len(contents) == 0 {
			return nil
		}
		return tx.Create(&contents).Error
	})
}

// ReplaceCourses 整体替换某记录的课程关联
func (s MediaRecordRepoImpl) ReplaceCourses(ctx context.Context, id uuid.UUID, courses []model.MediaRecordCourse) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_record_id = ?", id).Delete(&model.MediaRecordCourse{}).Error; err != nil {
			return err
		}
		if len(courses) == 0 {
			return nil
		}
		return tx.Create(&courses).Error
	})
}
