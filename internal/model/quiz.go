package model

import "gorm.io/datatypes"

type QuestionType string

const (
	ShortAnswer  QuestionType = "short_answer"
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
)

func (t QuestionType) Valid() bool {
	switch t {
	case ShortAnswer, SingleChoice, MultiChoice:
		return true
	}
	return false
}

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	CourseID     *uint      `gorm:"index" json:"courseId,omitempty"`
	PassingMarks float64    `gorm:"default:0" json:"passingMarks"`
	CreatorID    uint       `gorm:"index" json:"creatorId"`
	Questions    []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// TotalMarks 所有题目分值之和
func (q *Quiz) TotalMarks() float64 {
	total := 0.0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// Question 题目类型决定 Keywords 与 Options 哪个生效
type Question struct {
	BaseModel
	QuizID   uint                        `gorm:"index" json:"quizId"`
	Title    string                      `gorm:"size:255;not null" json:"title"`
	Type     QuestionType                `gorm:"size:20;not null" json:"type"`
	Points   float64                     `gorm:"default:0" json:"points"`
	Keywords datatypes.JSONSlice[string] `json:"keywords,omitempty"` // short_answer
	Options  []QuestionOption            `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	Order    int                         `gorm:"default:0" json:"order"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) CorrectOptionIDs() []uint {
	var ids []uint
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

type QuestionOption struct {
	BaseModel
	QuestionID uint   `gorm:"index" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}
