package api

import "Mediahub/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	MediaRecordHandler *handler.MediaRecordHandler
	ProgressHandler    *handler.ProgressHandler
}
