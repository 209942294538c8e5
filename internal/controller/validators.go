package controller

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"skillforge_backend/internal/model"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	skillCodeTag    = "skillcode"
	questionTypeTag = "questiontype"
)

var (
	skillCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,19}$`)
	registerOnce     sync.Once
)

// RegisterValidators 向 gin 的校验引擎注册自定义标签，重复调用无副作用
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// 错误信息使用 json 字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation(skillCodeTag, skillCodeValidation)
		_ = v.RegisterValidation(questionTypeTag, questionTypeValidation)
	})
}

// skillCodeValidation 只校验格式，代码是否存在由 service 判断
func skillCodeValidation(fl validator.FieldLevel) bool {
	return skillCodePattern.MatchString(fl.Field().String())
}

func questionTypeValidation(fl validator.FieldLevel) bool {
	return model.QuestionType(fl.Field().String()).Valid()
}

// bindingMessage 将校验错误转为可读信息
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body: " + err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case skillCodeTag:
		return fmt.Sprintf("%s is not a valid skill code", field)
	case questionTypeTag:
		return fmt.Sprintf("%s must be one of short_answer, single_choice, multi_choice", field)
	default:
		return fmt.Sprintf("%s failed on %s", field, fe.Tag())
	}
}
