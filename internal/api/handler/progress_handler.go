package handler

import (
	"Mediahub/internal/pkg/response"
	"Mediahub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProgressHandler struct {
	progressService service.ProgressService
}

func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

// LogWorkedOn 为当前用户记录一次学习动作
func (s *ProgressHandler) LogWorkedOn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, service.UnauthorizedError)
		return
	}

	recordID, err := uuid.Parse(c.Param("record_id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	progress, err := s.progressService.LogWorkedOn(c.Request.Context(), recordID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, progress)
}

// GetProgress 查询当前用户在某条记录上的进度，未学习过时返回零值
func (s *ProgressHandler) GetProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, service.UnauthorizedError)
		return
	}

	recordID, err := uuid.Parse(c.Param("record_id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	progress, err := s.progressService.GetUserProgress(c.Request.Context(), recordID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, progress)
}
