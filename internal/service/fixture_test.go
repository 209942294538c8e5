package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher 记录投递的通知，err 非空时模拟投递失败
type recordingPublisher struct {
	mu        sync.Mutex
	published []model.Notification
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, ns []model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, ns...)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type fixture struct {
	db           *gorm.DB
	publisher    *recordingPublisher
	progression  *ProgressionService
	courses      *CourseService
	quizzes      *QuizService
	achievements *AchievementService
	enrollments  *repository.EnrollmentRepository
	stats        *repository.StatsRepository
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + name + "?mode=memory&cache=shared",
	}, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)
	publisher := &recordingPublisher{}

	progression := NewProgressionService(db, courseRepo, quizRepo, enrollmentRepo, statsRepo, achievementRepo, notifyRepo, publisher)
	return &fixture{
		db:           db,
		publisher:    publisher,
		progression:  progression,
		courses:      NewCourseService(db, courseRepo, enrollmentRepo, progression),
		quizzes:      NewQuizService(db, quizRepo, courseRepo, enrollmentRepo, progression),
		achievements: NewAchievementService(db, achievementRepo, courseRepo, progression),
		enrollments:  enrollmentRepo,
		stats:        statsRepo,
	}
}

const teacherID uint = 900

func (f *fixture) createCourse(t *testing.T, exp int, codes ...string) *model.Course {
	t.Helper()
	course, err := f.courses.CreateCourse(context.Background(), teacherID, CourseRequest{
		Title:      "Course " + strings.Join(codes, "+"),
		ExpPoints:  exp,
		SkillCodes: codes,
		Materials:  []MaterialRequest{{Title: "Intro"}, {Title: "Deep dive"}},
	})
	require.NoError(t, err)
	return course
}

// createFinalQuiz 一道 10 分单选题，第一个选项正确
func (f *fixture) createFinalQuiz(t *testing.T, courseID uint, passing float64) *model.Quiz {
	t.Helper()
	quiz, err := f.quizzes.CreateQuiz(context.Background(), teacherID, QuizRequest{
		Title:        "Final",
		CourseID:     &courseID,
		PassingMarks: passing,
		Terminal:     true,
		Questions: []QuizQuestionRequest{{
			Title:  "Pick the right one",
			Type:   model.SingleChoice,
			Points: 10,
			Options: []QuizOptionRequest{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			},
		}},
	})
	require.NoError(t, err)
	return quiz
}

func (f *fixture) enroll(t *testing.T, userID, courseID uint) {
	t.Helper()
	_, err := f.courses.Enroll(context.Background(), userID, courseID)
	require.NoError(t, err)
}

// takeQuiz 开始答题、作答并提交，correct 决定选择哪个选项
func (f *fixture) takeQuiz(t *testing.T, userID uint, quiz *model.Quiz, correct bool) *AttemptView {
	t.Helper()
	ctx := context.Background()
	attempt, err := f.quizzes.StartAttempt(ctx, userID, quiz.ID)
	require.NoError(t, err)

	q := quiz.Questions[0]
	pick := q.Options[1].ID
	if correct {
		pick = q.Options[0].ID
	}
	_, err = f.quizzes.RecordAnswer(ctx, userID, attempt.ID, q.ID, AnswerRequest{SelectedOptionIDs: []uint{pick}})
	require.NoError(t, err)

	view, err := f.quizzes.SubmitAttempt(ctx, userID, attempt.ID)
	require.NoError(t, err)
	return view
}

func (f *fixture) countRows(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}
