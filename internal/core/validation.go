package core

// validation.go checks drafts and patches before they reach the repository.
//
// Field rules live in validate tags on the catalog types. Bilingual names are
// checked at struct level because Description shares the LocalizedText type
// and may stay empty.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/albaseet/catalog/internal/catalog"
)

var (
	// ErrValidation is matched by every ValidationErrors value.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidBody is returned for request bodies that are not valid JSON.
	ErrInvalidBody = errors.New("invalid request body")
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`   // JSON path, e.g. "name.ar" or "sizes[1].stock"
	Message string `json:"message"` // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors lists every failed rule of one draft or patch.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e ValidationErrors) Unwrap() error { return ErrValidation }

// Validator validates catalog input.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a validator that reports fields by their JSON names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateDraftNames, catalog.Draft{})
	v.RegisterStructValidation(validatePatchNames, catalog.Patch{})
	return &Validator{v: v}
}

// Draft validates a new product.
func (v *Validator) Draft(d catalog.Draft) error {
	return v.check(d)
}

// Patch validates a partial update.
func (v *Validator) Patch(p catalog.Patch) error {
	return v.check(p)
}

func (v *Validator) check(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: ruleMessage(fe),
		})
	}
	return out
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "gte":
		return "must be >= " + fe.Param()
	case "lt":
		return "must be < " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

func validateDraftNames(sl validator.StructLevel) {
	d := sl.Current().Interface().(catalog.Draft)
	reportNames(sl, d.Name)
}

func validatePatchNames(sl validator.StructLevel) {
	p := sl.Current().Interface().(catalog.Patch)
	if p.Name != nil {
		reportNames(sl, *p.Name)
	}
}

func reportNames(sl validator.StructLevel, name catalog.LocalizedText) {
	if strings.TrimSpace(name.EN) == "" {
		sl.ReportError(name.EN, "name.en", "EN", "required", "")
	}
	if strings.TrimSpace(name.AR) == "" {
		sl.ReportError(name.AR, "name.ar", "AR", "required", "")
	}
}
