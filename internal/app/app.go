package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"skillforge_backend/internal/config"
	"skillforge_backend/internal/controller"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/service"
	"skillforge_backend/pkg/configwatcher"
	"skillforge_backend/pkg/database"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"
	"skillforge_backend/pkg/scheduler"
	"skillforge_backend/pkg/security"
	"skillforge_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	scheduler       *scheduler.Scheduler
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	course       *repository.CourseRepository
	enrollment   *repository.EnrollmentRepository
	quiz         *repository.QuizRepository
	stats        *repository.StatsRepository
	achievement  *repository.AchievementRepository
	notification *repository.NotificationRepository
}

type services struct {
	progression  *service.ProgressionService
	course       *service.CourseService
	quiz         *service.QuizService
	achievement  *service.AchievementService
	notification *service.NotificationService
}

type controllers struct {
	course       *controller.CourseController
	quiz         *controller.QuizController
	achievement  *controller.AchievementController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		course:       repository.NewCourseRepository(db),
		enrollment:   repository.NewEnrollmentRepository(db),
		quiz:         repository.NewQuizRepository(db),
		stats:        repository.NewStatsRepository(db),
		achievement:  repository.NewAchievementRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	var publisher service.NotificationPublisher = service.NopPublisher{}
	if rdb != nil {
		publisher = service.NewRedisPublisher(rdb, cfg.Notification.Channel)
	}

	s.progression = service.NewProgressionService(
		db,
		repos.course,
		repos.quiz,
		repos.enrollment,
		repos.stats,
		repos.achievement,
		repos.notification,
		publisher,
	)
	s.course = service.NewCourseService(db, repos.course, repos.enrollment, s.progression)
	s.quiz = service.NewQuizService(db, repos.quiz, repos.course, repos.enrollment, s.progression)
	s.achievement = service.NewAchievementService(db, repos.achievement, repos.course, s.progression)
	s.notification = service.NewNotificationService(repos.notification)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		course:       controller.NewCourseController(s.course),
		quiz:         controller.NewQuizController(s.quiz),
		achievement:  controller.NewAchievementController(s.achievement),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 使用已建立的连接组装应用，rdb 可为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
		Redis:     rdb,
		ctx:       ctx,
		cancel:    cancel,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	monitoring.Init()
	controller.RegisterValidators()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(logger.SetLevel)
	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.scheduler = scheduler.New()
	if err := app.scheduler.AddStatsReconcile(cfg.Scheduler.StatsReconcileCron, app.services.progression); err != nil {
		logger.Log.Fatal("Failed to schedule stats reconcile", zap.Error(err))
	}

	return app
}

func (a *App) startBackgroundTasks() {
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	go func() {
		err := configwatcher.WatchConfig(a.ctx, a.ConfigDir, func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	a.startBackgroundTasks()

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close()

	logger.Log.Info("Server exiting")
}

// Close 停止后台任务并释放连接
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
