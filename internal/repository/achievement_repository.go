package repository

import (
	"errors"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) WithTx(tx *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: tx}
}

func (r *AchievementRepository) Create(a *model.Achievement) error {
	return r.DB.Create(a).Error
}

func (r *AchievementRepository) FindByID(id uint) (*model.Achievement, error) {
	var a model.Achievement
	err := r.DB.Preload("Requirements").First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAchievementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindUngranted 候选成就：学员尚未获得的全部成就
func (r *AchievementRepository) FindUngranted(userID uint) ([]model.Achievement, error) {
	var achievements []model.Achievement
	granted := r.DB.Model(&model.MemberAchievement{}).Select("achievement_id").Where("user_id = ?", userID)
	err := r.DB.Preload("Requirements").
		Where("id NOT IN (?)", granted).
		Order("id asc").
		Find(&achievements).Error
	return achievements, err
}

func (r *AchievementRepository) CreateGrants(grants []model.MemberAchievement) error {
	if len(grants) == 0 {
		return nil
	}
	return r.DB.Create(&grants).Error
}

func (r *AchievementRepository) ListGrants(userID uint) ([]model.MemberAchievement, error) {
	var grants []model.MemberAchievement
	err := r.DB.Preload("Achievement").Preload("Achievement.Requirements").
		Where("user_id = ?", userID).
		Order("granted_at asc, id asc").
		Find(&grants).Error
	return grants, err
}
