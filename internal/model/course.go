package model

import (
	"time"

	"gorm.io/datatypes"
)

// SkillCategory 技能/分类代码，例如 PY、SEC，同时用于课程标签和成就要求
type SkillCategory struct {
	Code      string    `gorm:"primaryKey;size:20" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (SkillCategory) TableName() string {
	return "skill_categories"
}

// swagger:model Course
type Course struct {
	BaseModel
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	ExpPoints   int              `gorm:"default:0" json:"expPoints"`
	CreatorID   uint             `gorm:"index" json:"creatorId"`
	FinalQuizID *uint            `gorm:"index" json:"finalQuizId,omitempty"` // 结课测验，通过即完成课程
	Skills      []SkillCategory  `gorm:"many2many:course_skills;joinForeignKey:CourseID;joinReferences:SkillCode" json:"skills"`
	Materials   []CourseMaterial `gorm:"foreignKey:CourseID" json:"materials,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) SkillCodes() []string {
	codes := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		codes = append(codes, s.Code)
	}
	return codes
}

func (c *Course) MaterialIDs() []uint {
	ids := make([]uint, 0, len(c.Materials))
	for _, m := range c.Materials {
		ids = append(ids, m.ID)
	}
	return ids
}

type CourseMaterial struct {
	BaseModel
	CourseID uint   `gorm:"index" json:"courseId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Order    int    `gorm:"default:0" json:"order"`
}

func (CourseMaterial) TableName() string {
	return "course_materials"
}

// Enrollment 学员选课记录，软删除即退课
type Enrollment struct {
	BaseModel
	UserID             uint                      `gorm:"uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID           uint                      `gorm:"uniqueIndex:idx_enrollment_user_course" json:"courseId"`
	Course             *Course                   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Progress           int                       `gorm:"default:0" json:"progress"` // 0-100
	CompletedMaterials datatypes.JSONSlice[uint] `json:"completedMaterials"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
