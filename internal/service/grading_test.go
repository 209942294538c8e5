package service

import (
	"testing"

	"skillforge_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func shortAnswer(id uint, points float64, keywords ...string) model.Question {
	return model.Question{
		BaseModel: model.BaseModel{ID: id},
		Type:      model.ShortAnswer,
		Points:    points,
		Keywords:  datatypes.NewJSONSlice(keywords),
	}
}

func choice(id uint, typ model.QuestionType, points float64, correct ...uint) model.Question {
	q := model.Question{BaseModel: model.BaseModel{ID: id}, Type: typ, Points: points}
	isCorrect := map[uint]bool{}
	for _, c := range correct {
		isCorrect[c] = true
	}
	for optID := id * 10; optID < id*10+4; optID++ {
		q.Options = append(q.Options, model.QuestionOption{
			BaseModel: model.BaseModel{ID: optID},
			IsCorrect: isCorrect[optID],
		})
	}
	return q
}

func textAnswer(questionID uint, text string) model.Answer {
	return model.Answer{QuestionID: questionID, Text: text}
}

func selection(questionID uint, ids ...uint) model.Answer {
	return model.Answer{QuestionID: questionID, SelectedOptionIDs: datatypes.NewJSONSlice(ids)}
}

func TestShortAnswerPartialCredit(t *testing.T) {
	q := shortAnswer(1, 4, "recursion", "base", "case")
	a := textAnswer(1, "recursion and case handling")

	assert.InDelta(t, 2.0/3.0*4, ScoreQuestion(&q, &a), 1e-9)
}

func TestShortAnswerEmptyKeywordsScoresZero(t *testing.T) {
	q := shortAnswer(1, 5)
	a := textAnswer(1, "anything at all")

	assert.Equal(t, 0.0, ScoreQuestion(&q, &a))
}

func TestShortAnswerMatchingIsLiteral(t *testing.T) {
	q := shortAnswer(1, 3, "recursion", "base", "case")

	cases := map[string]float64{
		"Recursion Base Case":      0,
		"recursion, base, case.":   0,
		"recursion\tbase\ncase":    3,
		"recursion recursion":      1,
		"":                         0,
		"   ":                      0,
		"base case base case base": 2,
	}
	for text, want := range cases {
		a := textAnswer(1, text)
		assert.InDelta(t, want, ScoreQuestion(&q, &a), 1e-9, "response %q", text)
	}
}

func TestSingleChoice(t *testing.T) {
	q := choice(1, model.SingleChoice, 5, 11)

	right := selection(1, 11)
	wrong := selection(1, 12)
	both := selection(1, 11, 12)
	repeated := selection(1, 11, 11)
	none := selection(1)

	assert.Equal(t, 5.0, ScoreQuestion(&q, &right))
	assert.Equal(t, 0.0, ScoreQuestion(&q, &wrong))
	assert.Equal(t, 0.0, ScoreQuestion(&q, &both))
	assert.Equal(t, 5.0, ScoreQuestion(&q, &repeated))
	assert.Equal(t, 0.0, ScoreQuestion(&q, &none))
}

func TestSingleChoiceWithoutExactlyOneCorrectOption(t *testing.T) {
	q := choice(1, model.SingleChoice, 5)
	a := selection(1, 10)
	assert.Equal(t, 0.0, ScoreQuestion(&q, &a))

	q = choice(1, model.SingleChoice, 5, 10, 11)
	a = selection(1, 10)
	assert.Equal(t, 0.0, ScoreQuestion(&q, &a))
}

func TestMultiChoiceIsMonotonicAndCapped(t *testing.T) {
	q := choice(2, model.MultiChoice, 6, 20, 21, 22)

	prev := -1.0
	for n := 0; n <= 3; n++ {
		ids := []uint{23} // 错误选项不扣分
		for i := 0; i < n; i++ {
			ids = append(ids, uint(20+i))
		}
		a := selection(2, ids...)
		credit := ScoreQuestion(&q, &a)
		assert.Greater(t, credit, prev)
		assert.LessOrEqual(t, credit, q.Points)
		prev = credit
	}
	assert.Equal(t, 6.0, prev)
}

func TestMultiChoiceCountsDistinctSelections(t *testing.T) {
	q := choice(2, model.MultiChoice, 4, 20, 21)
	a := selection(2, 20, 20, 20)

	assert.Equal(t, 2.0, ScoreQuestion(&q, &a))
}

func TestMultiChoiceWithoutCorrectOptionsScoresZero(t *testing.T) {
	q := choice(2, model.MultiChoice, 4)
	a := selection(2, 20, 21)

	assert.Equal(t, 0.0, ScoreQuestion(&q, &a))
}

func TestMissingOrMismatchedAnswersScoreZero(t *testing.T) {
	sa := shortAnswer(1, 4, "go")
	sc := choice(2, model.SingleChoice, 4, 20)
	unknown := model.Question{BaseModel: model.BaseModel{ID: 3}, Type: "essay", Points: 4}

	textForChoice := textAnswer(2, "20")
	selectionForText := selection(1, 10)
	anyAnswer := textAnswer(3, "go")

	assert.Equal(t, 0.0, ScoreQuestion(&sa, nil))
	assert.Equal(t, 0.0, ScoreQuestion(&sc, &textForChoice))
	assert.Equal(t, 0.0, ScoreQuestion(&sa, &selectionForText))
	assert.Equal(t, 0.0, ScoreQuestion(&unknown, &anyAnswer))
}

func TestGradeQuizTotalsAndCredits(t *testing.T) {
	questions := []model.Question{
		shortAnswer(1, 4, "recursion", "base", "case"),
		choice(2, model.SingleChoice, 3, 20),
		choice(3, model.MultiChoice, 2, 30, 31),
		shortAnswer(4, 1, "unanswered"),
	}
	answers := []model.Answer{
		textAnswer(1, "base case"),
		selection(2, 20),
		selection(3, 31, 32),
	}

	result := GradeQuiz(questions, answers, 6)

	require.Len(t, result.Credits, 4)
	assert.InDelta(t, 8.0/3.0, result.Credits[0].Credit, 1e-9)
	assert.Equal(t, 3.0, result.Credits[1].Credit)
	assert.Equal(t, 1.0, result.Credits[2].Credit)
	assert.Equal(t, 0.0, result.Credits[3].Credit)
	assert.InDelta(t, 8.0/3.0+4, result.Score, 1e-6)
	assert.Equal(t, 10.0, result.TotalMarks)
	assert.True(t, result.Passed)
}

func TestGradeQuizPassingBoundary(t *testing.T) {
	q := []model.Question{shortAnswer(1, 100, "a", "b", "c", "d")}

	// 2/4 * 100 = 50
	atThreshold := GradeQuiz(q, []model.Answer{textAnswer(1, "a b")}, 50)
	assert.Equal(t, 50.0, atThreshold.Score)
	assert.True(t, atThreshold.Passed)

	belowThreshold := GradeQuiz(q, []model.Answer{textAnswer(1, "a b")}, 50.001)
	assert.False(t, belowThreshold.Passed)

	q = []model.Question{shortAnswer(1, 99.998, "a", "b", "c", "d")}
	justBelow := GradeQuiz(q, []model.Answer{textAnswer(1, "a b")}, 50)
	assert.InDelta(t, 49.999, justBelow.Score, 1e-9)
	assert.False(t, justBelow.Passed)

	// 0.1 累加十次不足 1.0，满分仍应及格
	var tenths []model.Question
	var answers []model.Answer
	for id := uint(1); id <= 10; id++ {
		tenths = append(tenths, choice(id, model.SingleChoice, 0.1, id*10))
		answers = append(answers, selection(id, id*10))
	}
	perfect := GradeQuiz(tenths, answers, 1.0)
	assert.Equal(t, 1.0, perfect.Score)
	assert.Equal(t, 1.0, perfect.TotalMarks)
	assert.True(t, perfect.Passed)

	oneWrong := GradeQuiz(tenths, answers[:9], 1.0)
	assert.Equal(t, 0.9, oneWrong.Score)
	assert.False(t, oneWrong.Passed)
}

func TestGradeQuizEmptyQuizPassesZeroThreshold(t *testing.T) {
	result := GradeQuiz(nil, nil, 0)

	assert.Equal(t, 0.0, result.Score)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Credits)
}
