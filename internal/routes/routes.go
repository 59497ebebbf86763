package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/quillcms/quill-backend/internal/handler"
	"github.com/quillcms/quill-backend/internal/middleware"
	"github.com/quillcms/quill-backend/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	contentHandler *handler.ContentHandler,
	jwtManager *jwt.Manager,
) {
	api := router.Group("/api/v1")

	// Content type registry (공개)
	api.GET("/contenttypes", contentHandler.ListContentTypes)

	content := api.Group("/content/:contenttype")
	{
		// 조회는 공개
		content.GET("", contentHandler.ListContent)
		content.GET("/:id", contentHandler.GetContent)

		// 저장과 이력 조회는 인증 필요
		content.POST("/:id/save", middleware.JWTAuth(jwtManager), contentHandler.SaveContent)
		content.GET("/:id/audit", middleware.JWTAuth(jwtManager), contentHandler.ListAudit)
	}
}
