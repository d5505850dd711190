package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error kinds. Concrete errors wrap one of these so callers can branch with
// errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrExternal     = errors.New("external failure")
)

var (
	ErrBookNotFound     = fmt.Errorf("book %w", ErrNotFound)
	ErrStudentNotFound  = fmt.Errorf("student %w", ErrNotFound)
	ErrAlreadyAvailable = fmt.Errorf("%w: book is already available", ErrInvalidState)
	ErrAlreadyIssued    = fmt.Errorf("%w: book is already issued", ErrInvalidState)
	ErrNoFinePending    = fmt.Errorf("%w: no fine pending", ErrInvalidState)
	ErrDuplicateID      = fmt.Errorf("%w: id already exists", ErrValidation)
	ErrBadCredentials   = errors.New("invalid username or password")
)

// FieldError is one failed input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects input problems. It matches ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{Field: jsonName(fe.Field()), Message: tagMessage(fe)})
	}
	return ve
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "notfuture":
		return "cannot be in the future"
	default:
		return "failed " + fe.Tag()
	}
}

// jsonName turns AdmissionYear into admission_year.
func jsonName(field string) string {
	var sb strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// external marks a database or transport failure.
func external(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrExternal, err)
}

// UserMessage renders err for display at the CLI or HTTP boundary.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "Invalid input: " + strings.TrimPrefix(ve.Error(), "validation failed: ")
	case errors.Is(err, ErrBookNotFound):
		return "Book not found."
	case errors.Is(err, ErrStudentNotFound):
		return "Student not found."
	case errors.Is(err, ErrAlreadyAvailable):
		return "This book is already available."
	case errors.Is(err, ErrAlreadyIssued):
		return "This book is already issued."
	case errors.Is(err, ErrNoFinePending):
		return "No fine pending for this book."
	case errors.Is(err, ErrDuplicateID):
		return "A record with this ID already exists."
	case errors.Is(err, ErrBadCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrNotFound):
		return "Record not found."
	case errors.Is(err, ErrValidation):
		return "Invalid input."
	case errors.Is(err, ErrExternal):
		return "The library database is unavailable. Please try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}
