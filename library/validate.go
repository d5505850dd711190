package library

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Years after the current one are rejected.
		_ = validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= int64(time.Now().Year())
		})
	})
	return validate
}

// validateStruct runs struct tags and converts failures to a ValidationError.
func validateStruct(v any) error {
	if err := getValidator().Struct(v); err != nil {
		return fromValidator(err)
	}
	return nil
}

func validateDate(field, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return nil
}
