package app

import (
	"skillforge_backend/internal/config"
	"skillforge_backend/internal/middleware"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerLearnerRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/skills", c.course.ListSkills)
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
	}
}

func (a *App) registerLearnerRoutes(group *gin.RouterGroup, c *controllers) {
	// 选课
	group.POST("/courses/:id/enroll", c.course.Enroll)
	group.DELETE("/courses/:id/enroll", c.course.Unenroll)
	group.GET("/enrollments", c.course.ListEnrollments)
	group.POST("/courses/:id/materials/:materialId/complete", c.course.CompleteMaterial)

	// 测验与答题
	group.GET("/quizzes/:id", c.quiz.GetQuiz)
	group.POST("/quizzes/:id/attempts", c.quiz.StartAttempt)
	group.GET("/attempts/:id", c.quiz.GetAttempt)
	group.PUT("/attempts/:id/answers/:questionId", c.quiz.RecordAnswer)
	group.PATCH("/attempts/:id/submit", c.quiz.SubmitAttempt)

	// 统计、成就、通知
	group.GET("/stats", c.achievement.GetStats)
	group.GET("/achievements", c.achievement.GetUserAchievements)
	group.GET("/notifications", c.notification.List)
	group.PATCH("/notifications/:id/read", c.notification.MarkRead)
}

func (a *App) registerTeacherRoutes(group *gin.RouterGroup, c *controllers) {
	teacher := group.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(util.Teacher))
	{
		teacher.POST("/courses", c.course.CreateCourse)
		teacher.POST("/quizzes", c.quiz.CreateQuiz)
	}
}

func (a *App) registerAdminRoutes(group *gin.RouterGroup, c *controllers) {
	admin := group.Group("/admin")
	admin.Use(middleware.RoleMiddleware(util.Admin))
	{
		admin.POST("/achievements", c.achievement.CreateAchievement)
	}
}
