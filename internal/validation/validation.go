package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

// FailedMessage is the top-level message of every validation error.
const FailedMessage = "Validation failed."

const defaultFieldMessage = "Invalid value."

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"param"`
	Value   any    `json:"value"`
	Message string `json:"msg"`
}

// Validator checks structs tagged with `validate` and reports failures using
// the `message` tag of the offending field.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator that names fields after their json tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s (a struct or pointer to struct). It returns nil or a
// 422 domain error whose data is the []FieldError list.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewInternalError(err)
	}

	typ := reflect.TypeOf(s)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Message: messageFor(typ, fe),
		})
	}
	return Failed(fields...)
}

// Failed wraps field errors into the standard validation failure.
func Failed(fields ...FieldError) error {
	return apperrors.NewValidationError(FailedMessage, fields)
}

func messageFor(typ reflect.Type, fe validator.FieldError) string {
	if typ.Kind() != reflect.Struct {
		return defaultFieldMessage
	}
	field, ok := typ.FieldByName(fe.StructField())
	if !ok {
		return defaultFieldMessage
	}
	if msg := field.Tag.Get("message"); msg != "" {
		return msg
	}
	return defaultFieldMessage
}
