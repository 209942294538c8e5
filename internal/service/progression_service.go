package service

import (
	"context"
	"fmt"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressionService 负责技能统计重算和成就授予，所有 *Tx 方法都在调用方事务内执行
type ProgressionService struct {
	DB              *gorm.DB
	CourseRepo      *repository.CourseRepository
	QuizRepo        *repository.QuizRepository
	EnrollmentRepo  *repository.EnrollmentRepository
	StatsRepo       *repository.StatsRepository
	AchievementRepo *repository.AchievementRepository
	NotifyRepo      *repository.NotificationRepository
	Publisher       NotificationPublisher
}

func NewProgressionService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	quizRepo *repository.QuizRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	statsRepo *repository.StatsRepository,
	achievementRepo *repository.AchievementRepository,
	notifyRepo *repository.NotificationRepository,
	publisher NotificationPublisher,
) *ProgressionService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &ProgressionService{
		DB:              db,
		CourseRepo:      courseRepo,
		QuizRepo:        quizRepo,
		EnrollmentRepo:  enrollmentRepo,
		StatsRepo:       statsRepo,
		AchievementRepo: achievementRepo,
		NotifyRepo:      notifyRepo,
		Publisher:       publisher,
	}
}

type Refresh struct {
	Stats         map[string]int
	Grants        []model.MemberAchievement
	Notifications []model.Notification
}

// RecomputeStatsTx 从选课和结课测验结果整体重算并覆盖学员统计
func (s *ProgressionService) RecomputeStatsTx(tx *gorm.DB, userID uint) (map[string]int, error) {
	courses := s.CourseRepo.WithTx(tx)

	codes, err := courses.SkillCodes()
	if err != nil {
		return nil, fmt.Errorf("load skill codes: %w", err)
	}
	ids, err := s.QuizRepo.WithTx(tx).PassedCourseIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("load passed courses: %w", err)
	}
	passed, err := courses.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("load passed courses: %w", err)
	}

	exps := make([]CourseExp, 0, len(passed))
	for _, c := range passed {
		exps = append(exps, CourseExpFrom(c))
	}
	stats := ComputeStats(codes, exps)

	if err := s.StatsRepo.WithTx(tx).Replace(userID, stats); err != nil {
		return nil, fmt.Errorf("save stats: %w", err)
	}
	return stats, nil
}

// EvaluateAchievementsTx 只在未获得的成就中评估，每个新成就写一条授予记录和一条通知
func (s *ProgressionService) EvaluateAchievementsTx(tx *gorm.DB, userID uint, stats map[string]int) ([]model.MemberAchievement, []model.Notification, error) {
	achievements := s.AchievementRepo.WithTx(tx)

	candidates, err := achievements.FindUngranted(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load candidate achievements: %w", err)
	}
	earned := EvaluateAchievements(stats, candidates)
	if len(earned) == 0 {
		return nil, nil, nil
	}

	now := time.Now()
	grants := make([]model.MemberAchievement, 0, len(earned))
	notifications := make([]model.Notification, 0, len(earned))
	for _, a := range earned {
		grants = append(grants, model.MemberAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			GrantedAt:     now,
		})
		notifications = append(notifications, achievementNotification(userID, a))
	}

	if err := achievements.CreateGrants(grants); err != nil {
		return nil, nil, fmt.Errorf("grant achievements: %w", err)
	}
	if err := s.NotifyRepo.WithTx(tx).CreateBatch(notifications); err != nil {
		return nil, nil, fmt.Errorf("create notifications: %w", err)
	}

	for i := range grants {
		a := earned[i]
		grants[i].Achievement = &a
	}
	return grants, notifications, nil
}

func (s *ProgressionService) RefreshTx(tx *gorm.DB, userID uint) (*Refresh, error) {
	stats, err := s.RecomputeStatsTx(tx, userID)
	if err != nil {
		return nil, err
	}
	grants, notifications, err := s.EvaluateAchievementsTx(tx, userID, stats)
	if err != nil {
		return nil, err
	}
	return &Refresh{Stats: stats, Grants: grants, Notifications: notifications}, nil
}

// Refresh 在独立事务中重算单个学员，提交后投递通知
func (s *ProgressionService) Refresh(ctx context.Context, userID uint) (*Refresh, error) {
	var refresh *Refresh
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		refresh, err = s.RefreshTx(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Publish(ctx, refresh.Notifications)
	return refresh, nil
}

// Publish 投递失败只记录日志，已提交的授予不会回滚
func (s *ProgressionService) Publish(ctx context.Context, notifications []model.Notification) {
	if len(notifications) == 0 {
		return
	}
	if err := s.Publisher.Publish(ctx, notifications); err != nil {
		monitoring.NotificationPublishFailures.Add(float64(len(notifications)))
		logger.Log.Warn("publish notifications failed",
			zap.Int("count", len(notifications)),
			zap.Uint("userId", notifications[0].UserID),
			zap.Error(err))
	}
}

// ReconcileAll 为所有有选课记录的学员重算统计并补发成就，单个学员失败不影响其他学员
func (s *ProgressionService) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.EnrollmentRepo.WithTx(s.DB.WithContext(ctx)).LearnerIDs()
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, userID := range ids {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		refresh, err := s.Refresh(ctx, userID)
		if err != nil {
			logger.Log.Error("reconcile learner failed", zap.Uint("userId", userID), zap.Error(err))
			continue
		}
		if n := len(refresh.Grants); n > 0 {
			monitoring.AchievementsGranted.Add(float64(n))
			logger.Log.Info("reconcile granted achievements", zap.Uint("userId", userID), zap.Int("count", n))
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *ProgressionService) GetStats(userID uint) (map[string]int, error) {
	return s.StatsRepo.FindByUser(userID)
}

func achievementNotification(userID uint, a model.Achievement) model.Notification {
	description := a.Description
	if description == "" {
		description = fmt.Sprintf("You earned the %q achievement.", a.Title)
	}
	return model.Notification{
		UserID:      userID,
		Kind:        model.NotificationAchievement,
		Title:       "Achievement unlocked: " + a.Title,
		Description: description,
	}
}
