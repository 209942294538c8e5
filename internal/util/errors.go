package util

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")

	// not-found
	ErrCourseNotFound       = errors.New("course not found")
	ErrMaterialNotFound     = errors.New("material not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAnswerNotFound       = errors.New("answer not found")
	ErrAchievementNotFound  = errors.New("achievement not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// invalid-state
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrNotEnrolled             = errors.New("not enrolled in course")
	ErrAlreadyEnrolled         = errors.New("already enrolled in course")

	// malformed-input
	ErrInvalidQuestion  = errors.New("invalid question definition")
	ErrUnknownSkillCode = errors.New("unknown skill code")
	ErrInvalidInput     = errors.New("invalid input")
)

// IsNotFound 判断是否属于资源不存在类错误
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrCourseNotFound, ErrMaterialNotFound, ErrEnrollmentNotFound, ErrQuizNotFound,
		ErrQuestionNotFound, ErrAttemptNotFound, ErrAnswerNotFound, ErrAchievementNotFound,
		ErrNotificationNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInvalidState 判断是否属于状态冲突类错误
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrNotEnrolled) ||
		errors.Is(err, ErrAlreadyEnrolled)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidQuestion) ||
		errors.Is(err, ErrUnknownSkillCode) ||
		errors.Is(err, ErrInvalidInput)
}
