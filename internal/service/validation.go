package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"lukeblog/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their form/json name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return strings.ToLower(f.Name)
	})
	return v
}

// ValidateStruct checks v's validate tags and returns the failures per field.
// The result is empty when v is valid.
func ValidateStruct(ctx context.Context, v any) models.FieldErrors {
	errs := models.FieldErrors{}
	err := validate.StructCtx(ctx, v)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("__all__", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value is at least %s", fe.Param())
	case "email":
		return "enter a valid email address"
	case "url":
		return "enter a valid URL"
	case "oneof":
		return fmt.Sprintf("select one of: %s", fe.Param())
	default:
		return "invalid value"
	}
}
