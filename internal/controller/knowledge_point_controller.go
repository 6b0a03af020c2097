package controller

import (
	"errors"
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/repository"
	"learnpath_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type KnowledgePointController struct {
	Repo        *repository.KnowledgePointRepository
	ContentRepo *repository.ContentRepository
}

func NewKnowledgePointController(repo *repository.KnowledgePointRepository, contentRepo *repository.ContentRepository) *KnowledgePointController {
	return &KnowledgePointController{Repo: repo, ContentRepo: contentRepo}
}

type CreateKnowledgePointRequest struct {
	Name       string `json:"name" binding:"required"`
	Difficulty int    `json:"difficulty"`
}

// @Summary 创建知识点 (管理员)
// @Tags 知识图谱
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateKnowledgePointRequest true "知识点信息"
// @Success 201 {object} util.Response
// @Router /api/admin/knowledge-points [post]
func (c *KnowledgePointController) Create(ctx *gin.Context) {
	var req CreateKnowledgePointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	kp := &model.KnowledgePoint{Name: req.Name, Difficulty: req.Difficulty}
	if kp.Difficulty <= 0 {
		kp.Difficulty = 1
	}

	if err := c.Repo.Create(ctx.Request.Context(), kp); err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Created(ctx, kp)
}

// @Summary 知识点列表 (管理员)
// @Tags 知识图谱
// @Produce json
// @Security BearerAuth
// @Param name query string false "名称筛选"
// @Success 200 {object} util.Response
// @Router /api/admin/knowledge-points [get]
func (c *KnowledgePointController) List(ctx *gin.Context) {
	name := ctx.Query("name")

	kps, err := c.Repo.List(ctx.Request.Context(), name)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Success(ctx, kps)
}

// @Summary 更新知识点 (管理员)
// @Tags 知识图谱
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "知识点ID"
// @Param body body CreateKnowledgePointRequest true "知识点信息"
// @Success 200 {object} util.Response
// @Router /api/admin/knowledge-points/{id} [put]
func (c *KnowledgePointController) Update(ctx *gin.Context) {
	kpID, ok := parseKPID(ctx)
	if !ok {
		return
	}

	var req CreateKnowledgePointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ref, err := c.Repo.FindByID(ctx.Request.Context(), kpID)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	kp := &model.KnowledgePoint{ID: ref.ID, Name: req.Name, Difficulty: req.Difficulty}
	if kp.Difficulty <= 0 {
		kp.Difficulty = ref.Difficulty
	}

	if err := c.Repo.Update(ctx.Request.Context(), kp); err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Success(ctx, kp)
}

// @Summary 删除知识点及其关联边 (管理员)
// @Tags 知识图谱
// @Produce json
// @Security BearerAuth
// @Param id path int true "知识点ID"
// @Success 200 {object} util.Response
// @Router /api/admin/knowledge-points/{id} [delete]
func (c *KnowledgePointController) Delete(ctx *gin.Context) {
	kpID, ok := parseKPID(ctx)
	if !ok {
		return
	}

	if err := c.Repo.Delete(ctx.Request.Context(), kpID); err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": kpID})
}

type PrerequisiteRequest struct {
	PrerequisiteID uint `json:"prerequisite_id" binding:"required"`
}

// @Summary 为知识点添加先修边 (管理员)
// @Tags 知识图谱
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "依赖方知识点ID"
// @Param body body PrerequisiteRequest true "先修知识点"
// @Success 201 {object} util.Response
// @Router /api/admin/knowledge-points/{id}/prerequisites [post]
func (c *KnowledgePointController) AddPrerequisite(ctx *gin.Context) {
	kpID, ok := parseKPID(ctx)
	if !ok {
		return
	}

	var req PrerequisiteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Repo.AddPrerequisite(ctx.Request.Context(), req.PrerequisiteID, kpID); err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"prerequisite_id": req.PrerequisiteID, "dependent_id": kpID})
}

// @Summary 移除先修边 (管理员)
// @Tags 知识图谱
// @Produce json
// @Security BearerAuth
// @Param id path int true "依赖方知识点ID"
// @Param prereqId path int true "先修知识点ID"
// @Success 200 {object} util.Response
// @Router /api/admin/knowledge-points/{id}/prerequisites/{prereqId} [delete]
func (c *KnowledgePointController) RemovePrerequisite(ctx *gin.Context) {
	kpID, ok := parseKPID(ctx)
	if !ok {
		return
	}

	prereqID, err := strconv.ParseUint(ctx.Param("prereqId"), 10, 64)
	if err != nil || prereqID == 0 {
		util.BadRequest(ctx, "invalid prerequisite id")
		return
	}

	if err := c.Repo.RemovePrerequisite(ctx.Request.Context(), uint(prereqID), kpID); err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"removed": prereqID})
}

type CreateContentRequest struct {
	Type       model.ContentType `json:"type" binding:"required"`
	Title      string            `json:"title" binding:"required"`
	URL        string            `json:"url" binding:"required"`
	EstMinutes int               `json:"est_minutes"`
	Difficulty int               `json:"difficulty"`
	Metadata   model.JSONMap     `json:"metadata"`
}

// @Summary 给知识点挂资料 (管理员)
// @Tags 知识图谱
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "知识点ID"
// @Param body body CreateContentRequest true "资料信息"
// @Success 201 {object} util.Response
// @Router /api/admin/knowledge-points/{id}/content [post]
func (c *KnowledgePointController) AddContent(ctx *gin.Context) {
	kpID, ok := parseKPID(ctx)
	if !ok {
		return
	}

	var req CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if _, err := c.Repo.FindByID(ctx.Request.Context(), kpID); err != nil {
		c.renderError(ctx, err)
		return
	}

	item := &model.ContentItem{
		KnowledgePointID: kpID,
		Type:             req.Type,
		Title:            req.Title,
		URL:              req.URL,
		EstMinutes:       req.EstMinutes,
		Difficulty:       req.Difficulty,
		Metadata:         req.Metadata,
	}
	if item.Difficulty <= 0 {
		item.Difficulty = 1
	}

	if err := c.ContentRepo.Create(ctx.Request.Context(), item); err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Created(ctx, item)
}

// @Summary 查询知识点下的资料 (管理员)
// @Tags 知识图谱
// @Produce json
// @Security BearerAuth
// @Param id path int true "知识点ID"
// @Success 200 {object} util.Response
// @Router /api/admin/knowledge-points/{id}/content [get]
func (c *KnowledgePointController) ListContent(ctx *gin.Context) {
	kpID, ok := parseKPID(ctx)
	if !ok {
		return
	}

	items, err := c.ContentRepo.ContentFor(ctx.Request.Context(), kpID)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Success(ctx, items)
}

func (c *KnowledgePointController) renderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrValidation):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrKPNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrDependency):
		util.ServiceUnavailable(ctx, "storage unavailable")
	default:
		util.LogInternalError(ctx, err)
	}
}

func parseKPID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid knowledge point id")
		return 0, false
	}
	return uint(id), true
}
