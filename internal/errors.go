package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorType tags every failure the client can observe. Callers branch on the
// tag instead of probing the shape of the error.
type ErrorType string

const (
	ErrorTypeAuthMissing  ErrorType = "AUTH_MISSING"
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeHTTP         ErrorType = "HTTP_ERROR"
	ErrorTypeBusinessRule ErrorType = "BUSINESS_RULE"
	ErrorTypeNetwork      ErrorType = "NETWORK_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidFile      ErrorCode = "INVALID_FILE"
	ErrCodeFileTooLarge     ErrorCode = "FILE_TOO_LARGE"
	ErrCodeInvalidPageSize  ErrorCode = "INVALID_PAGE_SIZE"
	ErrCodeSystemOwned      ErrorCode = "SYSTEM_OWNED"

	ErrCodeNoSession    ErrorCode = "NO_SESSION"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	ErrCodeRecordInUse    ErrorCode = "RECORD_IN_USE"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeRequestFailed  ErrorCode = "REQUEST_FAILED"
	ErrCodeUnreachable    ErrorCode = "UNREACHABLE"
	ErrCodeUnexpectedBody ErrorCode = "UNEXPECTED_BODY"
)

type AppError struct {
	Type       ErrorType         `json:"type"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Cause      error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage joins field messages in a stable order, falling back to
// the top level message.
func (e *AppError) GetDetailedMessage() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, e.Fields[k])
	}
	return strings.Join(messages, "; ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithFields(fields map[string]string) *AppError {
	e.Fields = fields
	return e
}

// Is matches on type and code so sentinel errors work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func NewAuthMissingError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthMissing,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldsError(fields map[string]string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		Fields:     fields,
		StatusCode: http.StatusBadRequest,
	}
}

func NewHTTPError(status int, message string) *AppError {
	code := ErrCodeRequestFailed
	switch status {
	case http.StatusNotFound:
		code = ErrCodeNotFound
	case http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	}
	return &AppError{
		Type:       ErrorTypeHTTP,
		Code:       code,
		Message:    message,
		StatusCode: status,
	}
}

func NewBusinessRuleError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeBusinessRule,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeNetwork,
		Code:    ErrCodeUnreachable,
		Message: message,
		Cause:   cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrAuthMissing  = NewAuthMissingError("Please login to continue", ErrCodeNoSession)
	ErrTokenExpired = NewAuthMissingError("Your session has expired, please login again", ErrCodeTokenExpired)
	ErrSystemOwned  = NewBusinessRuleError("System records cannot be changed", ErrCodeSystemOwned)
	ErrRecordInUse  = NewBusinessRuleError("Record is in use and cannot be deleted", ErrCodeRecordInUse)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries the given tag.
func IsType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

// DisplayMessage converts any error into the string shown to the user.
func DisplayMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if appErr, ok := IsAppError(err); ok {
		if appErr.Message != "" {
			return appErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

type Response struct {
	Message string            `json:"message"`
	Code    ErrorCode         `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	status := e.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, Response{Message: e.Message, Code: e.Code, Details: e.Fields}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType         `json:"type"`
		Code    ErrorCode         `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Fields,
	})
}
