package app

import (
	"learnpath_backend/docs"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/middleware"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需令牌)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/token", c.auth.IssueToken)
	}

	// 业务接口：服务方令牌即可
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.POST("/generate-path", c.path.GeneratePath)
		authGroup.GET("/mock/students/:id/history", c.path.GetMockHistory)
	}

	// 图谱管理：仅管理员
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(util.RoleAdmin))
	{
		admin.POST("/knowledge-points", c.knowledgePoint.Create)
		admin.GET("/knowledge-points", c.knowledgePoint.List)
		admin.PUT("/knowledge-points/:id", c.knowledgePoint.Update)
		admin.DELETE("/knowledge-points/:id", c.knowledgePoint.Delete)
		admin.POST("/knowledge-points/:id/prerequisites", c.knowledgePoint.AddPrerequisite)
		admin.DELETE("/knowledge-points/:id/prerequisites/:prereqId", c.knowledgePoint.RemovePrerequisite)
		admin.POST("/knowledge-points/:id/content", c.knowledgePoint.AddContent)
		admin.GET("/knowledge-points/:id/content", c.knowledgePoint.ListContent)
	}
}
