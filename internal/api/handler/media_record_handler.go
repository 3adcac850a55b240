package handler

import (
	"Mediahub/internal/api/dto"
	"Mediahub/internal/pkg/response"
	"Mediahub/internal/service"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MediaRecordHandler struct {
	mediaService service.MediaRecordService
}

func NewMediaRecordHandler(mediaService service.MediaRecordService) *MediaRecordHandler {
	return &MediaRecordHandler{
		mediaService: mediaService,
	}
}

// currentUserID 取鉴权中间件注入的当前登录用户
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// urlRequest 解析调用方对预签名链接的声明，未声明则跳过网关调用
func urlRequest(c *gin.Context) service.URLRequest {
	upload, _ := strconv.ParseBool(c.Query("upload_url"))
	download, _ := strconv.ParseBool(c.Query("download_url"))
	return service.URLRequest{Upload: upload, Download: download}
}

// parseIDList 解析逗号分隔的 uuid 列表
func parseIDList(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MediaRecordHandler) GetAll(c *gin.Context) {
	records, err := s.mediaService.GetAll(c.Request.Context(), urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

func (s *MediaRecordHandler) GetByIDs(c *gin.Context) {
	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	records, err := s.mediaService.GetByIDs(c.Request.Context(), ids, urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

func (s *MediaRecordHandler) FindByIDs(c *gin.Context) {
	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	records, err := s.mediaService.FindByIDs(c.Request.Context(), ids, urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

// GetSelf 返回当前登录用户创建的全部记录
func (s *MediaRecordHandler) GetSelf(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, service.UnauthorizedError)
		return
	}

	records, err := s.mediaService.GetForUser(c.Request.Context(), userID, urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

// GetByContentIDs 广播查询，结果与请求的内容 id 顺序对齐
func (s *MediaRecordHandler) GetByContentIDs(c *gin.Context) {
	var body dto.ContentIDsDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, err)
		return
	}

	records, err := s.mediaService.GetByContentIDs(c.Request.Context(), body.ContentIDs, urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

// GetForCourses 广播查询，结果与请求的课程 id 顺序对齐
func (s *MediaRecordHandler) GetForCourses(c *gin.Context) {
	var body dto.CourseIDsDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, err)
		return
	}

	records, err := s.mediaService.GetForCourses(c.Request.Context(), body.CourseIDs, urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

func (s *MediaRecordHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, service.UnauthorizedError)
		return
	}

	var body dto.CreateMediaRecordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, err)
		return
	}

	record, err := s.mediaService.Create(c.Request.Context(), userID, &body, urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, record)
}

func (s *MediaRecordHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("record_id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var body dto.UpdateMediaRecordDTO
	if err = c.ShouldBindJSON(&body); err != nil {
		response.Error(c, err)
		return
	}

	record, err := s.mediaService.Update(c.Request.Context(), id, &body, urlRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, record)
}

func (s *MediaRecordHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("record_id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	deletedID, err := s.mediaService.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, deletedID)
}

// SetForCourse 声明式替换某课程关联的记录集合
func (s *MediaRecordHandler) SetForCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var body dto.MediaRecordIDsDTO
	if err = c.ShouldBindJSON(&body); err != nil {
		response.Error(c, err)
		return
	}

	records, err := s.mediaService.SetMediaRecordsForCourse(c.Request.Context(), courseID, body.MediaRecordIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

// SetForContent 声明式替换某内容关联的记录集合
func (s *MediaRecordHandler) SetForContent(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("content_id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var body dto.MediaRecordIDsDTO
	if err = c.ShouldBindJSON(&body); err != nil {
		response.Error(c, err)
		return
	}

	records, err := s.mediaService.SetLinkedMediaRecordsForContent(c.Request.Context(), contentID, body.MediaRecordIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}
