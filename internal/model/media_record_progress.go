package model

import (
	"time"

	"github.com/google/uuid"
)

// MediaRecordProgress 记录某用户对某媒体资源的学习进度
// DateWorkedOn 仅在 WorkedOn 首次置为 true 时写入，之后不再变化
type MediaRecordProgress struct {
	MediaRecordID uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	WorkedOn      bool      `gorm:"not null;default:false"`
	DateWorkedOn  *time.Time
}
