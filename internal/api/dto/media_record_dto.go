package dto

import (
	"Mediahub/internal/model"

	"github.com/google/uuid"
)

// MediaRecordDTO 媒体资源记录的对外视图
// UploadURL / DownloadURL 仅在调用方声明需要时填充
type MediaRecordDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	CreatorID   uuid.UUID       `json:"creator_id"`
	Type        model.MediaType `json:"type"`
	ContentIDs  []uuid.UUID     `json:"content_ids"`
	CourseIDs   []uuid.UUID     `json:"course_ids"`
	UploadURL   *string         `json:"upload_url,omitempty"`
	DownloadURL *string         `json:"download_url,omitempty"`
}

// CreateMediaRecordDTO 创建请求体
// CreatorID 允许出现但始终被忽略，创建者一律取当前登录用户
type CreateMediaRecordDTO struct {
	Name       string          `json:"name" binding:"required,max=255"`
	Type       model.MediaType `json:"type" binding:"required"`
	ContentIDs []uuid.UUID     `json:"content_ids"`
	CourseIDs  []uuid.UUID     `json:"course_ids"`
	CreatorID  *uuid.UUID      `json:"creator_id,omitempty"`
}

// UpdateMediaRecordDTO 更新请求体，name/type/content_ids 整体替换
// CourseIDs 为 nil 时保留既有课程关联
type UpdateMediaRecordDTO struct {
	Name       string          `json:"name" binding:"required,max=255"`
	Type       model.MediaType `json:"type" binding:"required"`
	ContentIDs []uuid.UUID     `json:"content_ids"`
	CourseIDs  []uuid.UUID     `json:"course_ids,omitempty"`
}

// MediaRecordIDsDTO 批量关联请求体
type MediaRecordIDsDTO struct {
	MediaRecordIDs []uuid.UUID `json:"media_record_ids" binding:"required"`
}

// ContentIDsDTO 按内容 id 批量查询请求体
type ContentIDsDTO struct {
	ContentIDs []uuid.UUID `json:"content_ids" binding:"required"`
}

// CourseIDsDTO 按课程 id 批量查询请求体
type CourseIDsDTO struct {
	CourseIDs []uuid.UUID `json:"course_ids" binding:"required"`
}
