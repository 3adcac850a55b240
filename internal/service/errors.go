package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid       = errors.New("参数错误")
	ErrMediaTypeInvalid   = errors.New("不支持的媒体类型")
	ErrStorageUnavailable = errors.New("对象存储服务不可用")
	UnauthorizedError     = errors.New("权限不足")
	UnExpectedError       = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:       BadRequest,
	ErrMediaTypeInvalid:   BadRequest,
	ErrStorageUnavailable: InternalServerError,
	UnauthorizedError:     Unauthorized,
	UnExpectedError:       InternalServerError,
}

// MediaRecordsNotFoundError 携带全部缺失的记录 id，而不只是第一个
type MediaRecordsNotFoundError struct {
	IDs []uuid.UUID
}

func NewMediaRecordsNotFoundError(ids ...uuid.UUID) *MediaRecordsNotFoundError {
	return &MediaRecordsNotFoundError{IDs: ids}
}

func (e *MediaRecordsNotFoundError) Error() string {
	strs := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		strs = append(strs, id.String())
	}
	return fmt.Sprintf("media record(s) with id(s) %s not found", strings.Join(strs, ", "))
}
