package service

import (
	"context"
	"fmt"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
)

type AchievementService struct {
	DB              *gorm.DB
	AchievementRepo *repository.AchievementRepository
	CourseRepo      *repository.CourseRepository
	Progression     *ProgressionService
}

func NewAchievementService(
	db *gorm.DB,
	achievementRepo *repository.AchievementRepository,
	courseRepo *repository.CourseRepository,
	progression *ProgressionService,
) *AchievementService {
	return &AchievementService{
		DB:              db,
		AchievementRepo: achievementRepo,
		CourseRepo:      courseRepo,
		Progression:     progression,
	}
}

type RequirementRequest struct {
	SkillCode string `json:"skillCode" binding:"required,skillcode"`
	Threshold int    `json:"threshold" binding:"gte=0"`
}

type AchievementRequest struct {
	Title        string               `json:"title" binding:"required"`
	Description  string               `json:"description"`
	Icon         string               `json:"icon"`
	Requirements []RequirementRequest `json:"requirements" binding:"dive"`
}

// CreateAchievement 新成就不会立即授予，已满足条件的学员在下次重算时获得
func (s *AchievementService) CreateAchievement(ctx context.Context, req AchievementRequest) (*model.Achievement, error) {
	a := &model.Achievement{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
	}
	codes := make([]string, 0, len(req.Requirements))
	for _, r := range req.Requirements {
		if r.Threshold < 0 {
			return nil, fmt.Errorf("%w: threshold must not be negative", util.ErrInvalidInput)
		}
		codes = append(codes, r.SkillCode)
		a.Requirements = append(a.Requirements, model.AchievementRequirement{
			SkillCode: r.SkillCode,
			Threshold: r.Threshold,
		})
	}
	codes = distinct(codes)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skills, err := s.CourseRepo.WithTx(tx).FindSkillsByCodes(codes)
		if err != nil {
			return err
		}
		if len(skills) != len(codes) {
			return fmt.Errorf("%w: %v", util.ErrUnknownSkillCode, missingCodes(codes, skills))
		}
		return s.AchievementRepo.WithTx(tx).Create(a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AchievementService) ListGrants(userID uint) ([]model.MemberAchievement, error) {
	return s.AchievementRepo.ListGrants(userID)
}

type StatsView struct {
	UserID uint           `json:"userId"`
	Stats  map[string]int `json:"stats"`
}

func (s *AchievementService) GetStats(userID uint) (*StatsView, error) {
	stats, err := s.Progression.GetStats(userID)
	if err != nil {
		return nil, err
	}
	return &StatsView{UserID: userID, Stats: stats}, nil
}
