package model

import (
	"time"

	"gorm.io/datatypes"
)

type Achievement struct {
	BaseModel
	Title        string                   `gorm:"size:100;not null" json:"title"`
	Description  string                   `gorm:"type:text" json:"description"`
	Icon         string                   `gorm:"size:255" json:"icon"`
	Requirements []AchievementRequirement `gorm:"foreignKey:AchievementID" json:"requirements"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// AchievementRequirement 某技能代码的经验值下限
type AchievementRequirement struct {
	BaseModel
	AchievementID uint   `gorm:"index" json:"achievementId"`
	SkillCode     string `gorm:"size:20;not null" json:"skillCode"`
	Threshold     int    `gorm:"not null" json:"threshold"`
}

func (AchievementRequirement) TableName() string {
	return "achievement_requirements"
}

// MemberAchievement 授予记录，只创建一次且不会撤销，因此不做软删除
type MemberAchievement struct {
	ID            uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint         `gorm:"uniqueIndex:idx_member_achievement" json:"userId"`
	AchievementID uint         `gorm:"uniqueIndex:idx_member_achievement" json:"achievementId"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	GrantedAt     time.Time    `json:"grantedAt"`
}

func (MemberAchievement) TableName() string {
	return "member_achievements"
}

// MemberStats 学员各技能代码的累计经验，每次整体重算后覆盖
type MemberStats struct {
	ID        uint                               `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    uint                               `gorm:"uniqueIndex" json:"userId"`
	Stats     datatypes.JSONType[map[string]int] `json:"stats"`
	UpdatedAt time.Time                          `json:"updatedAt"`
}

func (MemberStats) TableName() string {
	return "member_stats"
}
