package controller

import (
	"crypto/subtle"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	Config *config.Config
}

func NewAuthController(cfg *config.Config) *AuthController {
	return &AuthController{Config: cfg}
}

type TokenRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// @Summary 用 API Key 换取访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body TokenRequest true "凭证"
// @Success 200 {object} util.Response
// @Router /api/auth/token [post]
func (c *AuthController) IssueToken(ctx *gin.Context) {
	var req TokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	role, ok := c.authenticate(req.APIKey)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	token, err := util.GenerateJWT(req.ClientID, role, c.Config.Auth.JWTSecret, c.Config.Auth.ExpireTime)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, TokenResponse{
		Token:     token,
		ExpiresIn: int(c.Config.Auth.ExpireTime.Seconds()),
	})
}

// authenticate 配置了哈希就走 bcrypt，否则对明文做恒定时间比较
func (c *AuthController) authenticate(apiKey string) (util.Role, bool) {
	auth := c.Config.Auth

	if auth.AdminAPIKey != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(auth.AdminAPIKey)) == 1 {
		return util.RoleAdmin, true
	}

	if auth.APIKeyHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(auth.APIKeyHash), []byte(apiKey)) == nil {
			return util.RoleService, true
		}
		return "", false
	}

	if auth.APIKey != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(auth.APIKey)) == 1 {
		return util.RoleService, true
	}

	return "", false
}
