package service

import (
	"Mediahub/internal/api/dto"
	"Mediahub/internal/model"
	"Mediahub/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressService interface {
	LogWorkedOn(ctx context.Context, mediaRecordID, userID uuid.UUID) (*dto.MediaRecordProgressDTO, error)
	GetUserProgress(ctx context.Context, mediaRecordID, userID uuid.UUID) (*dto.MediaRecordProgressDTO, error)
}

type progressServiceImpl struct {
	progressRepo repository.ProgressRepo
	recordRepo   repository.MediaRecordRepo
	now          func() time.Time
}

func NewProgressService(progressRepo repository.ProgressRepo, recordRepo repository.MediaRecordRepo) ProgressService {
	return &progressServiceImpl{
		progressRepo: progressRepo,
		recordRepo:   recordRepo,
		now:          time.Now,
	}
}

// LogWorkedOn 标记用户已学习该资源
// DateWorkedOn 只在首次置位时写入，重复调用不再变化
func (s *progressServiceImpl) LogWorkedOn(ctx context.Context, mediaRecordID, userID uuid.UUID) (*dto.MediaRecordProgressDTO, error) {
	if _, err := s.recordRepo.GetByID(ctx, mediaRecordID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewMediaRecordsNotFoundError(mediaRecordID)
		}
		return nil, err
	}

	progress, err := s.progressRepo.Get(ctx, mediaRecordID, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		workedOn := s.now()
		progress = &model.MediaRecordProgress{
			MediaRecordID: mediaRecordID,
			UserID:        userID,
			WorkedOn:      true,
			DateWorkedOn:  &workedOn,
		}
		if err = s.progressRepo.Upsert(ctx, progress); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !progress.WorkedOn:
		workedOn := s.now()
		progress.WorkedOn = true
		progress.DateWorkedOn = &workedOn
		if err = s.progressRepo.Upsert(ctx, progress); err != nil {
			return nil, err
		}
	}

	return toProgressDTO(progress), nil
}

// GetUserProgress 查询进度，无记录时返回 WorkedOn=false 的零值
func (s *progressServiceImpl) GetUserProgress(ctx context.Context, mediaRecordID, userID uuid.UUID) (*dto.MediaRecordProgressDTO, error) {
	if _, err := s.recordRepo.GetByID(ctx, mediaRecordID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewMediaRecordsNotFoundError(mediaRecordID)
		}
		return nil, err
	}

	progress, err := s.progressRepo.Get(ctx, mediaRecordID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.MediaRecordProgressDTO{
				MediaRecordID: mediaRecordID,
				UserID:        userID,
				WorkedOn:      false,
			}, nil
		}
		return nil, err
	}

	return toProgressDTO(progress), nil
}

func toProgressDTO(progress *model.MediaRecordProgress) *dto.MediaRecordProgressDTO {
	return &dto.MediaRecordProgressDTO{
		MediaRecordID: progress.MediaRecordID,
		UserID:        progress.UserID,
		WorkedOn:      progress.WorkedOn,
		DateWorkedOn:  progress.DateWorkedOn,
	}
}
