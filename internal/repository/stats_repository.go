package repository

import (
	"errors"
	"skillforge_backend/internal/model"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

func (r *StatsRepository) WithTx(tx *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: tx}
}

// FindByUser 没有记录时返回空 map
func (r *StatsRepository) FindByUser(userID uint) (map[string]int, error) {
	var ms model.MemberStats
	err := r.DB.Where("user_id = ?", userID).First(&ms).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, err
	}
	stats := ms.Stats.Data()
	if stats == nil {
		stats = map[string]int{}
	}
	return stats, nil
}

// Replace 整体覆盖学员的统计数据
func (r *StatsRepository) Replace(userID uint, stats map[string]int) error {
	row := model.MemberStats{
		UserID:    userID,
		Stats:     datatypes.NewJSONType(stats),
		UpdatedAt: time.Now(),
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stats", "updated_at"}),
	}).Create(&row).Error
}
