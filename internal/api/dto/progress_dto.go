package dto

import (
	"time"

	"github.com/google/uuid"
)

// MediaRecordProgressDTO 用户对某媒体资源的学习进度
type MediaRecordProgressDTO struct {
	MediaRecordID uuid.UUID  `json:"media_record_id"`
	UserID        uuid.UUID  `json:"user_id"`
	WorkedOn      bool       `json:"worked_on"`
	DateWorkedOn  *time.Time `json:"date_worked_on,omitempty"`
}
