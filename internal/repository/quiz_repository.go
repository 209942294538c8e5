package repository

import (
	"errors"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

// CreateQuiz 同时写入题目和选项
func (r *QuizRepository) CreateQuiz(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindQuizByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc, id asc")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// 答题记录

func (r *QuizRepository) CreateAttempt(result *model.QuizResult, answers []model.Answer) error {
	if err := r.DB.Create(result).Error; err != nil {
		return err
	}
	if len(answers) == 0 {
		return nil
	}
	for i := range answers {
		answers[i].QuizResultID = result.ID
	}
	if err := r.DB.Create(&answers).Error; err != nil {
		return err
	}
	result.Answers = answers
	return nil
}

func (r *QuizRepository) FindAttemptByID(id string) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.First(&result, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *QuizRepository) ListAnswers(attemptID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Where("quiz_result_id = ?", attemptID).Order("id asc").Find(&answers).Error
	return answers, err
}

func (r *QuizRepository) FindAnswer(attemptID string, questionID uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.DB.Where("quiz_result_id = ? AND question_id = ?", attemptID, questionID).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *QuizRepository) UpdateAnswer(answer *model.Answer) error {
	return r.DB.Model(answer).Select("text", "selected_option_ids").Updates(answer).Error
}

// MarkSubmitted 以 submitted=false 为条件更新（compare-and-set），返回是否由本次调用完成提交。
// terminal 记录提交时该测验是否为课程的结课测验，之后更换结课测验不影响已有结果
func (r *QuizRepository) MarkSubmitted(attemptID string, score float64, passed, terminal bool, at time.Time) (bool, error) {
	res := r.DB.Model(&model.QuizResult{}).
		Where("id = ? AND submitted = ?", attemptID, false).
		Updates(map[string]interface{}{
			"submitted":    true,
			"score":        score,
			"passed":       passed,
			"terminal":     terminal,
			"submitted_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// PassedCourseIDs 学员仍在读且通过过结课测验的课程，以提交时记录的 terminal 为准
func (r *QuizRepository) PassedCourseIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Table("enrollments e").
		Joins("JOIN courses c ON c.id = e.course_id AND c.deleted_at IS NULL").
		Joins("JOIN quizzes q ON q.course_id = e.course_id").
		Joins("JOIN quiz_results qr ON qr.quiz_id = q.id AND qr.user_id = e.user_id AND qr.deleted_at IS NULL").
		Where("e.user_id = ? AND e.deleted_at IS NULL", userID).
		Where("qr.submitted = ? AND qr.passed = ? AND qr.terminal = ?", true, true, true).
		Distinct().
		Order("e.course_id asc").
		Pluck("e.course_id", &ids).Error
	return ids, err
}
