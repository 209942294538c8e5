package repository

import (
	"errors"
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) WithTx(tx *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: tx}
}

// FindActive 查找未退课的选课记录
func (r *EnrollmentRepository) FindActive(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindIncludingDropped 包含已退课记录，用于重新选课
func (r *EnrollmentRepository) FindIncludingDropped(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Unscoped().Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) Create(e *model.Enrollment) error {
	return r.DB.Create(e).Error
}

func (r *EnrollmentRepository) Restore(e *model.Enrollment) error {
	if err := r.DB.Unscoped().Model(e).Update("deleted_at", nil).Error; err != nil {
		return err
	}
	e.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (r *EnrollmentRepository) Delete(e *model.Enrollment) error {
	return r.DB.Delete(e).Error
}

func (r *EnrollmentRepository) UpdateProgress(e *model.Enrollment, progress int, completed []uint) error {
	e.Progress = progress
	e.CompletedMaterials = datatypes.NewJSONSlice(completed)
	return r.DB.Model(e).Select("progress", "completed_materials").Updates(e).Error
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.Preload("Course").Preload("Course.Skills").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&es).Error
	return es, err
}

// LearnerIDs 所有拥有有效选课记录的学员
func (r *EnrollmentRepository) LearnerIDs() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Enrollment{}).Distinct().Order("user_id asc").Pluck("user_id", &ids).Error
	return ids, err
}
