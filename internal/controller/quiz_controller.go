package controller

import (
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// @Summary 创建测验
// @Description 教师创建测验及题目，terminal=true 时设为课程的结课测验
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizRequest true "测验定义"
// @Success 201 {object} util.Response
// @Router /api/teacher/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, bindingMessage(err))
		return
	}

	quiz, err := c.QuizService.CreateQuiz(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 获取测验
// @Description 学员视角，不返回关键词和正确选项
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.QuizService.GetQuiz(id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 开始答题
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/attempts [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	attempt, err := c.QuizService.StartAttempt(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// @Summary 获取答题记录
// @Description 本人可见总分和作答内容
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path string true "答题ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *QuizController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.QuizService.GetAttempt(user.UserID, user.Role, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 保存作答
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "答题ID"
// @Param questionId path int true "题目ID"
// @Param body body service.AnswerRequest true "作答"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/answers/{questionId} [put]
func (c *QuizController) RecordAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, ok := pathID(ctx, "questionId")
	if !ok {
		return
	}

	var req service.AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, bindingMessage(err))
		return
	}

	answer, err := c.QuizService.RecordAnswer(ctx.Request.Context(), user.UserID, ctx.Param("id"), questionID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

// @Summary 提交答题
// @Description 判分并更新课程进度、技能统计和成就，同一答题只能提交一次
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path string true "答题ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/attempts/{id}/submit [patch]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.QuizService.SubmitAttempt(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
