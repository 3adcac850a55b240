package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaType 媒体资源类型，决定资源文件所在的存储桶
type MediaType string

const (
	MediaTypeAudio        MediaType = "AUDIO"
	MediaTypeVideo        MediaType = "VIDEO"
	MediaTypeImage        MediaType = "IMAGE"
	MediaTypePresentation MediaType = "PRESENTATION"
	MediaTypeDocument     MediaType = "DOCUMENT"
	MediaTypeURL          MediaType = "URL"
)

// AllMediaTypes 返回全部媒体类型，用于启动时的存储桶巡检
func AllMediaTypes() []MediaType {
	return []MediaType{
		MediaTypeAudio,
		MediaTypeVideo,
		MediaTypeImage,
		MediaTypePresentation,
		MediaTypeDocument,
		MediaTypeURL,
	}
}

func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeAudio, MediaTypeVideo, MediaTypeImage,
		MediaTypePresentation, MediaTypeDocument, MediaTypeURL:
		return true
	}
	return false
}

// BucketName 类型对应的存储桶名，每种类型一个桶
func (t MediaType) BucketName() string {
	return strings.ToLower(string(t))
}

// MediaRecord 媒体资源记录，文件本体存放在对象存储中
type MediaRecord struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"size:255;not null"`
	CreatorID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Type        MediaType `gorm:"size:16;not null"`
	UploadURL   *string   `gorm:"size:500"`
	DownloadURL *string   `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Contents []MediaRecordContent  `gorm:"foreignKey:MediaRecordID"`
	Courses  []MediaRecordCourse   `gorm:"foreignKey:MediaRecordID"`
	Progress []MediaRecordProgress `gorm:"foreignKey:MediaRecordID"`
}

// MediaRecordContent 记录与内容的关联，Position 保持链接顺序
type MediaRecordContent struct {
	MediaRecordID uuid.UUID `gorm:"type:char(36);primaryKey"`
	ContentID     uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	Position      int       `gorm:"not null"`
}

// MediaRecordCourse 记录与课程的关联，无序集合
type MediaRecordCourse struct {
	MediaRecordID uuid.UUID `gorm:"type:char(36);primaryKey"`
	CourseID      uuid.UUID `gorm:"type:char(36);primaryKey;index"`
}

// ContentIDs 按 Position 顺序返回关联的内容 id
func (r *MediaRecord) ContentIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Contents))
	for _, c := range r.Contents {
		ids = append(ids, c.ContentID)
	}
	return ids
}

// CourseIDs 返回关联的课程 id
func (r *MediaRecord) CourseIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Courses))
	for _, c := range r.Courses {
		ids = append(ids, c.CourseID)
	}
	return ids
}

func (r *MediaRecord) HasContent(contentID uuid.UUID) bool {
	for _, c := range r.Contents {
		if c.ContentID == contentID {
			return true
		}
	}
	return false
}

func (r *MediaRecord) HasCourse(courseID uuid.UUID) bool {
	for _, c := range r.Courses {
		if c.CourseID == courseID {
			return true
		}
	}
	return false
}
