package core

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "validation failed"
	}
	return err.Err.Error()
}

// FieldErrors flattens validation failures into a {field: message} map.
// ok is false when err is not a validation failure.
func FieldErrors(err error, translator ut.Translator) (fields map[string]string, ok bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fields = make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fields[vErr.Field()] = vErr.Translate(translator)
		}
		return fields, true
	case *ValidationError:
		fields = make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			fields[fErr.Field] = fErr.Error
		}
		if len(fields) == 0 {
			fields[""] = origErr.Error()
		}
		return fields, true
	}
	return nil, false
}
