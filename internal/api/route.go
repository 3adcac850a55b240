package api

import (
	"Mediahub/internal/api/middleware"
	"Mediahub/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		recordGroup := apiGroup.Group("/media-records")
		recordGroup.Use(middleware.AuthMiddleware())
		{
			recordGroup.GET("/batch", group.MediaRecordHandler.GetByIDs)
			recordGroup.GET("/batch/find", group.MediaRecordHandler.FindByIDs)
			recordGroup.GET("/self", group.MediaRecordHandler.GetSelf)
			recordGroup.POST("/by-contents", group.MediaRecordHandler.GetByContentIDs)
			recordGroup.POST("/by-courses", group.MediaRecordHandler.GetForCourses)
			recordGroup.POST("", group.MediaRecordHandler.Create)
			recordGroup.PUT("/:record_id", group.MediaRecordHandler.Update)
			recordGroup.DELETE("/:record_id", group.MediaRecordHandler.Delete)

			recordGroup.POST("/:record_id/worked-on", group.ProgressHandler.LogWorkedOn)
			recordGroup.GET("/:record_id/progress", group.ProgressHandler.GetProgress)

			// 全量列表仅限管理员
			adminGroup := recordGroup.Group("")
			adminGroup.Use(middleware.CheckRoles("ADMIN"))
			{
				adminGroup.GET("", group.MediaRecordHandler.GetAll)
			}
		}

		courseGroup := apiGroup.Group("/courses")
		courseGroup.Use(middleware.AuthMiddleware())
		{
			courseGroup.PUT("/:course_id/media-records", group.MediaRecordHandler.SetForCourse)
		}

		contentGroup := apiGroup.Group("/contents")
		contentGroup.Use(middleware.AuthMiddleware())
		{
			contentGroup.PUT("/:content_id/media-records", group.MediaRecordHandler.SetForContent)
		}
	}

	return r
}
