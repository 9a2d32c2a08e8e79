package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/security"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	rules := map[string]validator.Func{
		"strongpassword": func(fl validator.FieldLevel) bool {
			return security.IsPasswordValid(fl.Field().String())
		},
		"appstatus": func(fl validator.FieldLevel) bool {
			return model.ValidApplicationStatus(fl.Field().String())
		},
		"postingstatus": func(fl validator.FieldLevel) bool {
			return model.ValidPostingStatus(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}
