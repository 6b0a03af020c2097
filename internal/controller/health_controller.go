package controller

import (
	"learnpath_backend/internal/service"
	"learnpath_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Engine *service.ModelService
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, engine *service.ModelService) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Engine: engine}
}

// @Summary 健康检查
// @Description 检查数据库、Redis 与预测引擎状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	redisStatus := "up"
	if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
		redisStatus = "down"
	}

	// 降级模式也算健康：服务仍然可以出预测
	predictor := "fallback"
	if c.Engine.ModelReady() {
		predictor = "model"
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database":  "up",
			"redis":     redisStatus,
			"predictor": predictor,
		},
	})
}
