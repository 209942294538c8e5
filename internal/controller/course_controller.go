package controller

import (
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// @Summary 技能代码列表
// @Tags 课程
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/skills [get]
func (c *CourseController) ListSkills(ctx *gin.Context) {
	skills, err := c.CourseService.ListSkills()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, skills)
}

// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	courses, total, err := c.CourseService.ListCourses(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Paged(ctx, courses, total, page, limit)
}

// @Summary 课程详情
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.CourseService.GetCourse(id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 创建课程
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CourseRequest true "课程"
// @Success 201 {object} util.Response
// @Router /api/teacher/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, bindingMessage(err))
		return
	}

	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// @Summary 选课
// @Tags 选课
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.CourseService.Enroll(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// @Summary 退课
// @Tags 选课
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/enroll [delete]
func (c *CourseController) Unenroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.CourseService.Unenroll(ctx.Request.Context(), user.UserID, id); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 我的选课
// @Tags 选课
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/enrollments [get]
func (c *CourseController) ListEnrollments(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	enrollments, err := c.CourseService.ListEnrollments(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// @Summary 完成学习资料
// @Tags 选课
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param materialId path int true "资料ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/materials/{materialId}/complete [post]
func (c *CourseController) CompleteMaterial(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	materialID, ok := pathID(ctx, "materialId")
	if !ok {
		return
	}

	enrollment, err := c.CourseService.CompleteMaterial(ctx.Request.Context(), user.UserID, courseID, materialID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}
