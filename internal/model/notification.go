package model

const (
	NotificationAchievement = "achievement"
)

type Notification struct {
	UUIDBase
	UserID      uint   `gorm:"index" json:"userId"`
	Kind        string `gorm:"size:50;not null" json:"kind"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsRead      bool   `gorm:"default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
