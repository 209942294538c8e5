package service

import (
	"context"
	"errors"
	"fmt"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"
	"skillforge_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizService struct {
	DB             *gorm.DB
	QuizRepo       *repository.QuizRepository
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Progression    *ProgressionService
}

func NewQuizService(
	db *gorm.DB,
	quizRepo *repository.QuizRepository,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progression *ProgressionService,
) *QuizService {
	return &QuizService{
		DB:             db,
		QuizRepo:       quizRepo,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		Progression:    progression,
	}
}

type QuizOptionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuizQuestionRequest struct {
	Title    string              `json:"title" binding:"required"`
	Type     model.QuestionType  `json:"type" binding:"required,questiontype"`
	Points   float64             `json:"points" binding:"gte=0"`
	Keywords []string            `json:"keywords"`
	Options  []QuizOptionRequest `json:"options" binding:"dive"`
	Order    int                 `json:"order"`
}

type QuizRequest struct {
	Title        string                `json:"title" binding:"required"`
	Description  string                `json:"description"`
	CourseID     *uint                 `json:"courseId"`
	PassingMarks float64               `json:"passingMarks" binding:"gte=0"`
	Terminal     bool                  `json:"terminal"` // 设为课程的结课测验
	Questions    []QuizQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

func validateQuestion(i int, q QuizQuestionRequest) error {
	if !q.Type.Valid() {
		return fmt.Errorf("%w: question %d: unknown type %q", util.ErrInvalidQuestion, i+1, q.Type)
	}
	if q.Points < 0 {
		return fmt.Errorf("%w: question %d: negative points", util.ErrInvalidQuestion, i+1)
	}

	correct := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			correct++
		}
	}

	switch q.Type {
	case model.ShortAnswer:
		if len(q.Options) > 0 {
			return fmt.Errorf("%w: question %d: short answer questions take keywords, not options", util.ErrInvalidQuestion, i+1)
		}
	case model.SingleChoice:
		if len(q.Keywords) > 0 || len(q.Options) < 2 || correct != 1 {
			return fmt.Errorf("%w: question %d: single choice needs at least two options with exactly one correct", util.ErrInvalidQuestion, i+1)
		}
	case model.MultiChoice:
		if len(q.Keywords) > 0 || len(q.Options) < 2 || correct < 1 {
			return fmt.Errorf("%w: question %d: multi choice needs at least two options with one or more correct", util.ErrInvalidQuestion, i+1)
		}
	}
	return nil
}

func (s *QuizService) CreateQuiz(ctx context.Context, creatorID uint, req QuizRequest) (*model.Quiz, error) {
	if req.Terminal && req.CourseID == nil {
		return nil, fmt.Errorf("%w: a terminal quiz must belong to a course", util.ErrInvalidInput)
	}

	quiz := &model.Quiz{
		Title:        req.Title,
		Description:  req.Description,
		CourseID:     req.CourseID,
		PassingMarks: req.PassingMarks,
		CreatorID:    creatorID,
	}
	for i, qr := range req.Questions {
		if err := validateQuestion(i, qr); err != nil {
			return nil, err
		}
		question := model.Question{
			Title:    qr.Title,
			Type:     qr.Type,
			Points:   qr.Points,
			Keywords: datatypes.NewJSONSlice(qr.Keywords),
			Order:    qr.Order,
		}
		if question.Order == 0 {
			question.Order = i + 1
		}
		for _, o := range qr.Options {
			question.Options = append(question.Options, model.QuestionOption{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if quiz.CourseID != nil {
			if _, err := s.CourseRepo.WithTx(tx).FindByID(*quiz.CourseID); err != nil {
				return err
			}
		}
		if err := s.QuizRepo.WithTx(tx).CreateQuiz(quiz); err != nil {
			return err
		}
		if req.Terminal {
			return s.CourseRepo.WithTx(tx).SetFinalQuiz(*quiz.CourseID, quiz.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("quiz created",
		zap.Uint("quizId", quiz.ID),
		zap.Uint("creatorId", creatorID),
		zap.Int("questions", len(quiz.Questions)),
		zap.Bool("terminal", req.Terminal))
	return quiz, nil
}

// 学员视角，不包含关键词和正确选项

type LearnerOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type LearnerQuestion struct {
	ID      uint               `json:"id"`
	Title   string             `json:"title"`
	Type    model.QuestionType `json:"type"`
	Points  float64            `json:"points"`
	Order   int                `json:"order"`
	Options []LearnerOption    `json:"options,omitempty"`
}

type LearnerQuiz struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	CourseID     *uint             `json:"courseId,omitempty"`
	PassingMarks float64           `json:"passingMarks"`
	TotalMarks   float64           `json:"totalMarks"`
	Questions    []LearnerQuestion `json:"questions"`
}

func (s *QuizService) GetQuiz(quizID uint) (*LearnerQuiz, error) {
	quiz, err := s.QuizRepo.FindQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	view := &LearnerQuiz{
		ID:           quiz.ID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		CourseID:     quiz.CourseID,
		PassingMarks: quiz.PassingMarks,
		TotalMarks:   quiz.TotalMarks(),
		Questions:    make([]LearnerQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		lq := LearnerQuestion{ID: q.ID, Title: q.Title, Type: q.Type, Points: q.Points, Order: q.Order}
		for _, o := range q.Options {
			lq.Options = append(lq.Options, LearnerOption{ID: o.ID, Text: o.Text})
		}
		view.Questions = append(view.Questions, lq)
	}
	return view, nil
}

// StartAttempt 创建未提交的答题记录，并为每道题预置空白作答
func (s *QuizService) StartAttempt(ctx context.Context, userID, quizID uint) (*model.QuizResult, error) {
	var attempt *model.QuizResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quizzes := s.QuizRepo.WithTx(tx)
		quiz, err := quizzes.FindQuizByID(quizID)
		if err != nil {
			return err
		}
		if _, err := s.requireEnrollment(tx, userID, quiz); err != nil {
			return err
		}

		attempt = &model.QuizResult{
			UserID:    userID,
			QuizID:    quiz.ID,
			StartedAt: time.Now(),
		}
		answers := make([]model.Answer, 0, len(quiz.Questions))
		for _, q := range quiz.Questions {
			answers = append(answers, model.Answer{QuestionID: q.ID})
		}
		return quizzes.CreateAttempt(attempt, answers)
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// requireEnrollment 课程内的测验要求在读选课记录，独立测验返回 nil
func (s *QuizService) requireEnrollment(tx *gorm.DB, userID uint, quiz *model.Quiz) (*model.Enrollment, error) {
	if quiz.CourseID == nil {
		return nil, nil
	}
	enrollment, err := s.EnrollmentRepo.WithTx(tx).FindActive(userID, *quiz.CourseID)
	if errors.Is(err, util.ErrEnrollmentNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

type AnswerRequest struct {
	Text              string `json:"text"`
	SelectedOptionIDs []uint `json:"selectedOptionIds"`
}

// RecordAnswer 按题型只保留对应字段，已提交的答题记录不可再修改
func (s *QuizService) RecordAnswer(ctx context.Context, userID uint, attemptID string, questionID uint, req AnswerRequest) (*model.Answer, error) {
	var answer *model.Answer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quizzes := s.QuizRepo.WithTx(tx)
		attempt, err := quizzes.FindAttemptByID(attemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != userID {
			return util.ErrAttemptNotFound
		}
		if attempt.Submitted {
			return util.ErrAttemptAlreadySubmitted
		}

		quiz, err := quizzes.FindQuizByID(attempt.QuizID)
		if err != nil {
			return err
		}
		var question *model.Question
		for i := range quiz.Questions {
			if quiz.Questions[i].ID == questionID {
				question = &quiz.Questions[i]
				break
			}
		}
		if question == nil {
			return util.ErrQuestionNotFound
		}

		answer, err = quizzes.FindAnswer(attempt.ID, questionID)
		if err != nil {
			return err
		}
		if question.Type == model.ShortAnswer {
			answer.Text = req.Text
			answer.SelectedOptionIDs = datatypes.NewJSONSlice([]uint{})
		} else {
			answer.Text = ""
			answer.SelectedOptionIDs = datatypes.NewJSONSlice(req.SelectedOptionIDs)
		}
		return quizzes.UpdateAnswer(answer)
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

type AttemptView struct {
	ID              string                    `json:"id"`
	QuizID          uint                      `json:"quizId"`
	UserID          uint                      `json:"userId"`
	Submitted       bool                      `json:"submitted"`
	Score           float64                   `json:"score"`
	Passed          bool                      `json:"passed"`
	TotalMarks      *float64                  `json:"totalMarks,omitempty"`
	StartedAt       time.Time                 `json:"startedAt"`
	SubmittedAt     *time.Time                `json:"submittedAt,omitempty"`
	Answers         []model.Answer            `json:"answers,omitempty"`
	Credits         []QuestionCredit          `json:"credits,omitempty"`
	NewAchievements []model.MemberAchievement `json:"newAchievements,omitempty"`
}

func newAttemptView(a *model.QuizResult) *AttemptView {
	return &AttemptView{
		ID:          a.ID,
		QuizID:      a.QuizID,
		UserID:      a.UserID,
		Submitted:   a.Submitted,
		Score:       a.Score,
		Passed:      a.Passed,
		StartedAt:   a.StartedAt,
		SubmittedAt: a.SubmittedAt,
	}
}

// GetAttempt 本人可见总分，教师和管理员只能查看得分
func (s *QuizService) GetAttempt(userID uint, role util.UserRole, attemptID string) (*AttemptView, error) {
	attempt, err := s.QuizRepo.FindAttemptByID(attemptID)
	if err != nil {
		return nil, err
	}
	owner := attempt.UserID == userID
	if !owner && role != util.Teacher && role != util.Admin {
		return nil, util.ErrAttemptNotFound
	}

	view := newAttemptView(attempt)
	if owner {
		quiz, err := s.QuizRepo.FindQuizByID(attempt.QuizID)
		if err != nil {
			return nil, err
		}
		total := quiz.TotalMarks()
		view.TotalMarks = &total
		view.Answers, err = s.QuizRepo.ListAnswers(attempt.ID)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// SubmitAttempt 在一个事务内完成判分、提交、课程进度、技能统计和成就授予，通知在提交后投递
func (s *QuizService) SubmitAttempt(ctx context.Context, userID uint, attemptID string) (*AttemptView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizService.SubmitAttempt")
	defer span.End()
	span.SetAttributes(attribute.String("attempt.id", attemptID), attribute.Int("user.id", int(userID)))

	start := time.Now()
	var (
		view    *AttemptView
		refresh *Refresh
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quizzes := s.QuizRepo.WithTx(tx)

		attempt, err := quizzes.FindAttemptByID(attemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != userID {
			return util.ErrAttemptNotFound
		}
		if attempt.Submitted {
			return util.ErrAttemptAlreadySubmitted
		}

		quiz, err := quizzes.FindQuizByID(attempt.QuizID)
		if err != nil {
			return err
		}
		enrollment, err := s.requireEnrollment(tx, userID, quiz)
		if err != nil {
			return err
		}
		var course *model.Course
		if quiz.CourseID != nil {
			if course, err = s.CourseRepo.WithTx(tx).FindByID(*quiz.CourseID); err != nil {
				return err
			}
		}
		terminal := course != nil && course.FinalQuizID != nil && *course.FinalQuizID == quiz.ID

		answers, err := quizzes.ListAnswers(attempt.ID)
		if err != nil {
			return err
		}

		_, gradeSpan := tracing.Tracer.Start(ctx, "GradeQuiz")
		grade := GradeQuiz(quiz.Questions, answers, quiz.PassingMarks)
		gradeSpan.End()

		now := time.Now()
		ok, err := quizzes.MarkSubmitted(attempt.ID, grade.Score, grade.Passed, terminal, now)
		if err != nil {
			return err
		}
		if !ok {
			// 并发提交已先完成
			return util.ErrAttemptAlreadySubmitted
		}
		attempt.Submitted = true
		attempt.Score = grade.Score
		attempt.Passed = grade.Passed
		attempt.Terminal = terminal
		attempt.SubmittedAt = &now

		if grade.Passed && terminal {
			if err := s.EnrollmentRepo.WithTx(tx).UpdateProgress(enrollment, 100, course.MaterialIDs()); err != nil {
				return err
			}
		}

		refresh, err = s.Progression.RefreshTx(tx, userID)
		if err != nil {
			return err
		}

		view = newAttemptView(attempt)
		total := grade.TotalMarks
		view.TotalMarks = &total
		view.Answers = answers
		view.Credits = grade.Credits
		view.NewAchievements = refresh.Grants
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.Progression.Publish(ctx, refresh.Notifications)
	monitoring.ObserveSubmission(view.Passed, len(refresh.Grants), time.Since(start))

	logger.Log.Info("quiz attempt graded",
		zap.String("attemptId", view.ID),
		zap.Uint("userId", userID),
		zap.Uint("quizId", view.QuizID),
		zap.Float64("score", view.Score),
		zap.Bool("passed", view.Passed),
		zap.Int("newAchievements", len(refresh.Grants)))
	return view, nil
}
