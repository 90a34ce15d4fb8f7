package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	errors "github.com/frahmantamala/asset-management/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func fieldError(message string, code errors.ErrorCode) *errors.AppError {
	return errors.NewValidationError(message, code)
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		missing := false
		switch v := value.(type) {
		case nil:
			missing = true
		case string:
			missing = strings.TrimSpace(v) == ""
		case int:
			missing = v == 0
		case int64:
			missing = v == 0
		case *string:
			missing = v == nil || strings.TrimSpace(*v) == ""
		case []string:
			missing = len(v) == 0
		}
		if missing {
			return fieldError(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func asInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func (fv *FieldValidator) MinInt(min int64, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := asInt64(value); ok && v < min {
			return fieldError(fmt.Sprintf("%s must be at least %d", fv.FieldName, min), code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxInt(max int64, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := asInt64(value); ok && v > max {
			return fieldError(fmt.Sprintf("%s must not exceed %d", fv.FieldName, max), code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) OneOfInt(allowed []int, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := asInt64(value)
		if !ok {
			return nil
		}
		parts := make([]string, len(allowed))
		for i, a := range allowed {
			if int64(a) == v {
				return nil
			}
			parts[i] = fmt.Sprint(a)
		}
		return fieldError(fmt.Sprintf("%s must be one of %s", fv.FieldName, strings.Join(parts, ", ")), code)
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len([]rune(v)) < min {
			return fieldError(fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len([]rune(v)) > max {
			return fieldError(fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

// Extension checks a file name against an allow-list of dot prefixed,
// case insensitive extensions.
func (fv *FieldValidator) Extension(allowed []string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		name, ok := value.(string)
		if !ok {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		for _, a := range allowed {
			if ext != "" && ext == strings.ToLower(a) {
				return nil
			}
		}
		return fieldError(
			fmt.Sprintf("Invalid file type. Allowed types: %s", strings.Join(allowed, ", ")),
			errors.ErrCodeInvalidFile)
	})
	return fv
}

// MaxBytes rejects sizes above max, reported in whole megabytes when max is.
func (fv *FieldValidator) MaxBytes(max int64) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		size, ok := asInt64(value)
		if !ok || size <= max {
			return nil
		}
		limit := fmt.Sprintf("%d bytes", max)
		if max%(1024*1024) == 0 {
			limit = fmt.Sprintf("%dMB", max/(1024*1024))
		}
		return fieldError(fmt.Sprintf("File size must not exceed %s", limit), errors.ErrCodeFileTooLarge)
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every rule and keeps the first failure per field. With one
// failing field the error carries that field's message and code.
func (v *ValidationBuilder) Validate() *errors.AppError {
	fields := map[string]string{}
	var first *errors.AppError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			err := validator(field.Value)
			if err == nil {
				continue
			}
			fields[field.FieldName] = err.Message
			if first == nil {
				first = err
			}
			break
		}
	}

	if len(fields) == 0 {
		return nil
	}

	appErr := errors.NewValidationFieldsError(fields)
	if len(fields) == 1 {
		appErr.Message = first.Message
		appErr.Code = first.Code
	}
	return appErr
}

func ValidateImportFile(name string, size int64, allowed []string, maxBytes int64) *errors.AppError {
	validator := NewValidator()
	validator.Field("file", name).
		Required().
		Extension(allowed)
	validator.Field("size", size).
		MaxBytes(maxBytes)
	return validator.Validate()
}

func ValidatePageSize(size int, allowed []int) *errors.AppError {
	validator := NewValidator()
	validator.Field("page_size", size).
		OneOfInt(allowed, errors.ErrCodeInvalidPageSize)
	return validator.Validate()
}

func ValidateColumns(kind string, columns int) *errors.AppError {
	validator := NewValidator()
	validator.Field(kind+" columns", columns).
		MinInt(1, errors.ErrCodeValidationFailed).
		MaxInt(4, errors.ErrCodeValidationFailed)
	return validator.Validate()
}
