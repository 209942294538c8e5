package controller

import (
	"errors"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// handleServiceError 将 service 层的错误映射为 HTTP 响应
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case util.IsNotFound(err):
		util.NotFound(ctx, err.Error())
	case util.IsInvalidState(err):
		util.Conflict(ctx, err.Error())
	case util.IsInvalidInput(err):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// pathID 解析路径中的数字 ID，0 视为非法
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "Invalid "+name)
		return 0, false
	}
	return id, true
}
