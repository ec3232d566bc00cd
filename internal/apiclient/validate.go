package apiclient

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	studentStatusTag = "student_status"
	durationUnitTag  = "duration_unit"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation(studentStatusTag, func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case StatusFrozen, StatusActive:
			return true
		}
		return false
	})
	_ = v.RegisterValidation(durationUnitTag, func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "day", "week", "month":
			return true
		}
		return false
	})
	return v
}

// Validate checks struct payloads against their validate tags. Non-struct
// bodies (maps, raw JSON) pass through unchecked.
func Validate(payload interface{}) error {
	val := reflect.ValueOf(payload)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate payload")
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "email":
		return "must be a valid email"
	case "datetime":
		return "must be a timestamp in the form " + fe.Param()
	case studentStatusTag:
		return "must be " + StatusFrozen + " or " + StatusActive
	case durationUnitTag:
		return "must be day, week or month"
	}
	return "is invalid"
}
