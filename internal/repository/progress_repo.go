package repository

import (
	"Mediahub/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepo interface {
	Get(ctx context.Context, mediaRecordID, userID uuid.UUID) (*model.MediaRecordProgress, error)
	Upsert(ctx context.Context, progress *model.MediaRecordProgress) error
}

type ProgressRepoImpl struct {
	db *gorm.DB
}

func NewProgressRepo(db *gorm.DB) ProgressRepo {
	return &ProgressRepoImpl{
		db: db,
	}
}

func (s ProgressRepoImpl) Get(ctx context.Context, mediaRecordID, userID uuid.UUID) (*model.MediaRecordProgress, error) {
	var progress model.MediaRecordProgress
	err := s.db.WithContext(ctx).
		First(&progress, "media_record_id = ? AND user_id = ?", mediaRecordID, userID).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (s ProgressRepoImpl) Upsert(ctx context.Context, progress *model.MediaRecordProgress) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "media_record_id"}, {Name: "user_id"}},
		UpdateAll: true,
	}).Create(progress).Error
}
