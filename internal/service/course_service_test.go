package service

import (
	"context"
	"testing"

	"skillforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCourseRejectsUnknownSkillCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.courses.CreateCourse(context.Background(), teacherID, CourseRequest{
		Title:      "Rust",
		ExpPoints:  50,
		SkillCodes: []string{"PY", "RUST"},
	})
	assert.ErrorIs(t, err, util.ErrUnknownSkillCode)
	assert.Contains(t, err.Error(), "RUST")
}

func TestCreateCourseDeduplicatesSkillCodes(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, 50, "PY", "PY", "SEC")

	reloaded, err := f.courses.GetCourse(course.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PY", "SEC"}, reloaded.SkillCodes())
	require.Len(t, reloaded.Materials, 2)
	assert.Equal(t, "Intro", reloaded.Materials[0].Title)
}

func TestEnrollLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, 50, "PY")

	first, err := f.courses.Enroll(ctx, learnerID, course.ID)
	require.NoError(t, err)

	_, err = f.courses.Enroll(ctx, learnerID, course.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)

	require.NoError(t, f.courses.Unenroll(ctx, learnerID, course.ID))
	assert.ErrorIs(t, f.courses.Unenroll(ctx, learnerID, course.ID), util.ErrEnrollmentNotFound)

	list, err := f.courses.ListEnrollments(learnerID)
	require.NoError(t, err)
	assert.Empty(t, list)

	again, err := f.courses.Enroll(ctx, learnerID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	list, err = f.courses.ListEnrollments(learnerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Course)
	assert.Equal(t, course.ID, list[0].Course.ID)

	_, err = f.courses.Enroll(ctx, learnerID, 9999)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestCompleteMaterialProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, 50, "PY")
	other := f.createCourse(t, 50, "SEC")
	first, second := course.Materials[0].ID, course.Materials[1].ID

	_, err := f.courses.CompleteMaterial(ctx, learnerID, course.ID, first)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)

	f.enroll(t, learnerID, course.ID)

	e, err := f.courses.CompleteMaterial(ctx, learnerID, course.ID, first)
	require.NoError(t, err)
	assert.Equal(t, 50, e.Progress)

	e, err = f.courses.CompleteMaterial(ctx, learnerID, course.ID, first)
	require.NoError(t, err)
	assert.Equal(t, 50, e.Progress)
	assert.Len(t, e.CompletedMaterials, 1)

	_, err = f.courses.CompleteMaterial(ctx, learnerID, course.ID, other.Materials[0].ID)
	assert.ErrorIs(t, err, util.ErrMaterialNotFound)

	e, err = f.courses.CompleteMaterial(ctx, learnerID, course.ID, second)
	require.NoError(t, err)
	assert.Equal(t, 100, e.Progress)
	assert.ElementsMatch(t, []uint{first, second}, []uint(e.CompletedMaterials))
}

func TestUnenrollRemovesCourseFromStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, 100, "PY")
	quiz := f.createFinalQuiz(t, course.ID, 5)
	f.enroll(t, learnerID, course.ID)
	f.takeQuiz(t, learnerID, quiz, true)

	require.NoError(t, f.courses.Unenroll(ctx, learnerID, course.ID))
	stats, err := f.stats.FindByUser(learnerID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["PY"])

	// 重新选课恢复原记录，已通过的结课测验重新计入
	f.enroll(t, learnerID, course.ID)
	stats, err = f.stats.FindByUser(learnerID)
	require.NoError(t, err)
	assert.Equal(t, 100, stats["PY"])
}

func TestMaterialProgress(t *testing.T) {
	assert.Equal(t, 0, materialProgress(0, 0))
	assert.Equal(t, 33, materialProgress(1, 3))
	assert.Equal(t, 100, materialProgress(3, 3))
	assert.Equal(t, 100, materialProgress(4, 3))
}
