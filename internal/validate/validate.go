// Package validate adapts go-playground/validator to echo's Validator
// interface and registers the marina field rules.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pier11/marina-map/internal/model"
)

// Error is returned by Validate when a request body breaks a field rule.
// Detail is safe to show to clients.
type Error struct {
	Field  string
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "section", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || model.IsSection(s)
	})
	mustRegister(v, "palette", func(fl validator.FieldLevel) bool {
		return model.IsPaletteColor(fl.Field().String())
	})
	mustRegister(v, "image_ext", func(fl validator.FieldLevel) bool {
		return model.HasImageExtension(fl.Field().String())
	})
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return model.PasswordProblem(fl.Field().String()) == ""
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validate: register %s: %v", tag, err))
	}
}

// Validate checks i and returns the first failing field as *Error.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Detail: err.Error()}
	}
	fe := verrs[0]
	return &Error{Field: fe.Field(), Detail: fe.Field() + ": " + describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " characters"
	case "max":
		return "must have at most " + fe.Param() + " characters"
	case "email":
		return "value is not a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "section":
		return "section must be one of: " + strings.Join(model.Sections, ", ")
	case "palette":
		return "color must be one of: " + strings.Join(model.Palette, ", ")
	case "image_ext":
		return "image file must have one of these extensions: " + strings.Join(model.ImageExtensions, ", ")
	case "password":
		if s, ok := fe.Value().(string); ok {
			return model.PasswordProblem(s)
		}
		return "password is too weak"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
