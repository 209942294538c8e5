package service

import (
	"math"
	"strings"

	"skillforge_backend/internal/model"
)

// QuestionCredit 单题得分
type QuestionCredit struct {
	QuestionID uint               `json:"questionId"`
	Type       model.QuestionType `json:"type"`
	Points     float64            `json:"points"`
	Credit     float64            `json:"credit"`
}

type GradeResult struct {
	Score      float64          `json:"score"`
	TotalMarks float64          `json:"totalMarks"`
	Passed     bool             `json:"passed"`
	Credits    []QuestionCredit `json:"credits"`
}

// GradeQuiz 按题目定义对一次答题评分。缺失或格式错误的作答按 0 分处理，不会中断评分
func GradeQuiz(questions []model.Question, answers []model.Answer, passingMarks float64) GradeResult {
	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	result := GradeResult{Credits: make([]QuestionCredit, 0, len(questions))}
	for i := range questions {
		q := &questions[i]
		credit := ScoreQuestion(q, byQuestion[q.ID])
		result.Score += credit
		result.TotalMarks += q.Points
		result.Credits = append(result.Credits, QuestionCredit{
			QuestionID: q.ID,
			Type:       q.Type,
			Points:     q.Points,
			Credit:     credit,
		})
	}
	result.Score = roundScore(result.Score)
	result.TotalMarks = roundScore(result.TotalMarks)
	result.Passed = result.Score >= roundScore(passingMarks)
	return result
}

// scorePrecision 分数保留 6 位小数
const scorePrecision = 1e6

func roundScore(v float64) float64 {
	return math.Round(v*scorePrecision) / scorePrecision
}

func ScoreQuestion(q *model.Question, a *model.Answer) float64 {
	if q == nil || a == nil {
		return 0
	}
	switch q.Type {
	case model.ShortAnswer:
		return scoreShortAnswer(q.Keywords, a.Text, q.Points)
	case model.SingleChoice:
		return scoreSingleChoice(q.CorrectOptionIDs(), a.SelectedOptionIDs, q.Points)
	case model.MultiChoice:
		return scoreMultiChoice(q.CorrectOptionIDs(), a.SelectedOptionIDs, q.Points)
	}
	return 0
}

// scoreShortAnswer 按空白切词，区分大小写和标点；同一关键词只计一次
func scoreShortAnswer(keywords []string, text string, points float64) float64 {
	if len(keywords) == 0 {
		return 0
	}
	keywordSet := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		keywordSet[k] = struct{}{}
	}

	matched := make(map[string]struct{})
	for _, token := range strings.Fields(text) {
		if _, ok := keywordSet[token]; ok {
			matched[token] = struct{}{}
		}
	}
	return float64(len(matched)) / float64(len(keywordSet)) * points
}

// scoreSingleChoice 必须恰好选择一个选项且与正确选项一致
func scoreSingleChoice(correct []uint, selected []uint, points float64) float64 {
	if len(correct) != 1 {
		return 0
	}
	picked := distinct(selected)
	if len(picked) != 1 {
		return 0
	}
	if picked[0] == correct[0] {
		return points
	}
	return 0
}

// scoreMultiChoice 按命中的正确选项比例给分，多选的错误选项不扣分
func scoreMultiChoice(correct []uint, selected []uint, points float64) float64 {
	correctSet := make(map[uint]struct{}, len(correct))
	for _, id := range correct {
		correctSet[id] = struct{}{}
	}
	if len(correctSet) == 0 {
		return 0
	}
	matched := 0
	for _, id := range distinct(selected) {
		if _, ok := correctSet[id]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(correctSet)) * points
}

func distinct[T comparable](ids []T) []T {
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
