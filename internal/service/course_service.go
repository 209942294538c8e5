package service

import (
	"context"
	"errors"
	"fmt"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CourseService struct {
	DB             *gorm.DB
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Progression    *ProgressionService
}

func NewCourseService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progression *ProgressionService,
) *CourseService {
	return &CourseService{
		DB:             db,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		Progression:    progression,
	}
}

type MaterialRequest struct {
	Title string `json:"title" binding:"required"`
	Order int    `json:"order"`
}

type CourseRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	ExpPoints   int               `json:"expPoints" binding:"gte=0"`
	SkillCodes  []string          `json:"skillCodes" binding:"dive,skillcode"`
	Materials   []MaterialRequest `json:"materials" binding:"dive"`
}

func (s *CourseService) CreateCourse(ctx context.Context, creatorID uint, req CourseRequest) (*model.Course, error) {
	if req.ExpPoints < 0 {
		return nil, fmt.Errorf("%w: expPoints must not be negative", util.ErrInvalidInput)
	}
	codes := distinct(req.SkillCodes)

	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		ExpPoints:   req.ExpPoints,
		CreatorID:   creatorID,
	}
	for i, m := range req.Materials {
		order := m.Order
		if order == 0 {
			order = i + 1
		}
		course.Materials = append(course.Materials, model.CourseMaterial{Title: m.Title, Order: order})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		courses := s.CourseRepo.WithTx(tx)
		skills, err := courses.FindSkillsByCodes(codes)
		if err != nil {
			return err
		}
		if len(skills) != len(codes) {
			return fmt.Errorf("%w: %v", util.ErrUnknownSkillCode, missingCodes(codes, skills))
		}
		course.Skills = skills
		return courses.Create(course)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("course created", zap.Uint("courseId", course.ID), zap.Strings("skills", codes))
	return course, nil
}

func missingCodes(codes []string, found []model.SkillCategory) []string {
	known := make(map[string]bool, len(found))
	for _, s := range found {
		known[s.Code] = true
	}
	var missing []string
	for _, c := range codes {
		if !known[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	return s.CourseRepo.FindByID(id)
}

func (s *CourseService) ListCourses(page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.List(page, limit)
}

func (s *CourseService) ListSkills() ([]model.SkillCategory, error) {
	return s.CourseRepo.ListSkills()
}

// Enroll 重新选课时恢复已退课的记录，保留原有进度
func (s *CourseService) Enroll(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var enrollment *model.Enrollment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.CourseRepo.WithTx(tx).FindByID(courseID); err != nil {
			return err
		}

		enrollments := s.EnrollmentRepo.WithTx(tx)
		existing, err := enrollments.FindIncludingDropped(userID, courseID)
		switch {
		case errors.Is(err, util.ErrEnrollmentNotFound):
			enrollment = &model.Enrollment{UserID: userID, CourseID: courseID}
			return enrollments.Create(enrollment)
		case err != nil:
			return err
		case !existing.DeletedAt.Valid:
			return util.ErrAlreadyEnrolled
		}

		enrollment = existing
		if err := enrollments.Restore(enrollment); err != nil {
			return err
		}
		// 恢复的选课可能带有已通过的结课测验
		_, err = s.Progression.RecomputeStatsTx(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Unenroll 软删除选课记录，并重算该学员的技能统计；已授予的成就不收回
func (s *CourseService) Unenroll(ctx context.Context, userID, courseID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollments := s.EnrollmentRepo.WithTx(tx)
		enrollment, err := enrollments.FindActive(userID, courseID)
		if err != nil {
			return err
		}
		if err := enrollments.Delete(enrollment); err != nil {
			return err
		}
		_, err = s.Progression.RecomputeStatsTx(tx, userID)
		return err
	})
}

func (s *CourseService) ListEnrollments(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

// CompleteMaterial 标记学习资料完成并按完成比例更新进度，进度不会回退
func (s *CourseService) CompleteMaterial(ctx context.Context, userID, courseID, materialID uint) (*model.Enrollment, error) {
	var enrollment *model.Enrollment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		enrollments := s.EnrollmentRepo.WithTx(tx)
		enrollment, err = enrollments.FindActive(userID, courseID)
		if errors.Is(err, util.ErrEnrollmentNotFound) {
			return util.ErrNotEnrolled
		}
		if err != nil {
			return err
		}

		courses := s.CourseRepo.WithTx(tx)
		if _, err := courses.FindMaterial(courseID, materialID); err != nil {
			return err
		}

		completed := []uint(enrollment.CompletedMaterials)
		for _, id := range completed {
			if id == materialID {
				return nil
			}
		}
		completed = append(completed, materialID)

		total, err := courses.CountMaterials(courseID)
		if err != nil {
			return err
		}
		progress := materialProgress(len(completed), int(total))
		if enrollment.Progress > progress {
			progress = enrollment.Progress
		}
		return enrollments.UpdateProgress(enrollment, progress, completed)
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func materialProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := completed * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}
