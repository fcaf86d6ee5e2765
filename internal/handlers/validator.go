package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/go-playground/validator/v10"
)

// Validator checks request bodies against their validate tags and reports
// fields by their JSON names.
type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validator: v}
}

// Validate returns nil when s passes every rule.
func (v *Validator) Validate(s interface{}) []dto.FieldError {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []dto.FieldError{{Msg: err.Error()}}
	}
	fields := make([]dto.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, dto.FieldError{
			Field: fe.Field(),
			Msg:   fieldMessage(fe.Field(), fe.Tag(), fe.Param()),
		})
	}
	return fields
}

func fieldMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s", field, tag)
	}
}
