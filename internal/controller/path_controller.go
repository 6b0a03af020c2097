package controller

import (
	"errors"
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/service"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

type PathController struct {
	Service    *service.PredictionService
	Blackboard *service.MockBlackboard
}

func NewPathController(svc *service.PredictionService, blackboard *service.MockBlackboard) *PathController {
	return &PathController{Service: svc, Blackboard: blackboard}
}

type GeneratePathRequest struct {
	StudentID string                    `json:"student_id" binding:"required"`
	History   []model.InteractionRecord `json:"history"`
	ForceKPID uint                      `json:"force_kp_id"`
}

// @Summary 生成个性化学习路径
// @Description 根据历史预测最弱知识点并产出补救路径；传 force_kp_id 可跳过预测
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GeneratePathRequest true "学生历史"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/generate-path [post]
func (c *PathController) GeneratePath(ctx *gin.Context) {
	var req GeneratePathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.Generate(ctx.Request.Context(), req.StudentID, req.History, req.ForceKPID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrValidation):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrKPNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrDependency):
			util.ServiceUnavailable(ctx, "graph or content store unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	if result.Prediction != nil {
		monitoring.PredictionCounter.WithLabelValues(string(result.Prediction.Source)).Inc()
	}
	monitoring.PathSegments.Observe(float64(len(result.LearningPath)))

	util.Success(ctx, result)
}

// @Summary 查询演示学生的模拟历史
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/mock/students/{id}/history [get]
func (c *PathController) GetMockHistory(ctx *gin.Context) {
	studentID := ctx.Param("id")

	history := c.Blackboard.HistoryFor(studentID)
	if history == nil {
		util.NotFound(ctx, "unknown student")
		return
	}

	util.Success(ctx, gin.H{
		"student_id": studentID,
		"history":    history,
	})
}
