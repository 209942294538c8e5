package controller

import (
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// @Summary 获取用户成就
// @Description 获取当前用户已获得的成就
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/achievements [get]
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	grants, err := c.AchievementService.ListGrants(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, grants)
}

// @Summary 获取技能统计
// @Description 各技能代码的累计经验值
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/stats [get]
func (c *AchievementController) GetStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.AchievementService.GetStats(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 创建成就
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AchievementRequest true "成就定义"
// @Success 201 {object} util.Response
// @Router /api/admin/achievements [post]
func (c *AchievementController) CreateAchievement(ctx *gin.Context) {
	var req service.AchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, bindingMessage(err))
		return
	}

	a, err := c.AchievementService.CreateAchievement(ctx.Request.Context(), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, a)
}
