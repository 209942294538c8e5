package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuizResult 一次答题（attempt）。Submitted 只能由 false 变为 true，重考会新建记录
type QuizResult struct {
	UUIDBase
	UserID      uint       `gorm:"index" json:"userId"`
	QuizID      uint       `gorm:"index" json:"quizId"`
	Quiz        *Quiz      `gorm:"foreignKey:QuizID" json:"-"`
	Submitted   bool       `gorm:"default:false;not null" json:"submitted"`
	Score       float64    `gorm:"default:0" json:"score"`
	Passed      bool       `gorm:"default:false" json:"passed"`
	Terminal    bool       `gorm:"default:false;not null" json:"terminal"` // 提交时是否为所属课程的结课测验
	StartedAt   time.Time  `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	Answers     []Answer   `gorm:"foreignKey:QuizResultID" json:"answers,omitempty"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// Answer 单题作答：简答题使用 Text，选择题使用 SelectedOptionIDs
type Answer struct {
	BaseModel
	QuizResultID      string                    `gorm:"type:varchar(36);uniqueIndex:idx_answer_attempt_question" json:"quizResultId"`
	QuestionID        uint                      `gorm:"uniqueIndex:idx_answer_attempt_question" json:"questionId"`
	Text              string                    `gorm:"type:text" json:"text"`
	SelectedOptionIDs datatypes.JSONSlice[uint] `json:"selectedOptionIds"`
}

func (Answer) TableName() string {
	return "answers"
}
