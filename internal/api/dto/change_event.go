package dto

import "github.com/google/uuid"

// CrudOperation 资源变更类型
type CrudOperation string

const (
	OperationCreate CrudOperation = "CREATE"
	OperationUpdate CrudOperation = "UPDATE"
	OperationDelete CrudOperation = "DELETE"
)

// MediaRecordChangeEvent 对外发布的媒体资源变更事件
type MediaRecordChangeEvent struct {
	MediaRecord *MediaRecordDTO `json:"mediaRecord"`
	Operation   CrudOperation   `json:"operation"`
}

// ContentChangeEvent 内容服务推送的内容生命周期事件
// ContentIDs 与 Operation 均为必填，缺失时校验失败
type ContentChangeEvent struct {
	ContentIDs []uuid.UUID   `json:"contentIds"`
	Operation  CrudOperation `json:"operation"`
}
