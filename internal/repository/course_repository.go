package repository

import (
	"errors"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Skills").
		Preload("Materials", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc, id asc")
		}).
		First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindByIDs(ids []uint) ([]model.Course, error) {
	var courses []model.Course
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.DB.Preload("Skills").Where("id IN ?", ids).Order("id asc").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) List(page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64
	query := r.DB.Model(&model.Course{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Skills").Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) SetFinalQuiz(courseID, quizID uint) error {
	res := r.DB.Model(&model.Course{}).Where("id = ?", courseID).Update("final_quiz_id", quizID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) FindMaterial(courseID, materialID uint) (*model.CourseMaterial, error) {
	var m model.CourseMaterial
	err := r.DB.Where("id = ? AND course_id = ?", materialID, courseID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrMaterialNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CourseRepository) CountMaterials(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseMaterial{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// 技能代码

func (r *CourseRepository) ListSkills() ([]model.SkillCategory, error) {
	var skills []model.SkillCategory
	err := r.DB.Order("code asc").Find(&skills).Error
	return skills, err
}

func (r *CourseRepository) SkillCodes() ([]string, error) {
	var codes []string
	err := r.DB.Model(&model.SkillCategory{}).Order("code asc").Pluck("code", &codes).Error
	return codes, err
}

func (r *CourseRepository) FindSkillsByCodes(codes []string) ([]model.SkillCategory, error) {
	var skills []model.SkillCategory
	if len(codes) == 0 {
		return skills, nil
	}
	err := r.DB.Where("code IN ?", codes).Find(&skills).Error
	return skills, err
}
