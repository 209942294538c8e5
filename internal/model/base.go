package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UUIDBase 用于对外暴露、不希望被枚举的记录（答题记录、通知）
// swagger:model
type UUIDBase struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *UUIDBase) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = NewID()
	}
	return
}

func NewID() string {
	return uuid.NewString()
}

// AllModels 返回需要自动迁移的全部模型，顺序即建表顺序
func AllModels() []interface{} {
	return []interface{}{
		&SkillCategory{},
		&Course{},
		&CourseMaterial{},
		&Enrollment{},
		&Quiz{},
		&Question{},
		&QuestionOption{},
		&QuizResult{},
		&Answer{},
		&MemberStats{},
		&Achievement{},
		&AchievementRequirement{},
		&MemberAchievement{},
		&Notification{},
	}
}
