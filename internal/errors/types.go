package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeLex        ErrorType = "lex"
	ErrorTypeAnalysis   ErrorType = "analysis"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AnalysisError is a structured error type with file context.
type AnalysisError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	Rule     string
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Rule != "" {
		parts = append(parts, "rule:"+e.Rule)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *AnalysisError) Is(target error) bool {
	var t *AnalysisError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *AnalysisError) WithContext(key string, value interface{}) *AnalysisError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *AnalysisError) WithLocation(filePath string, line, column int) *AnalysisError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithRule attaches the rule key that was running when the error occurred.
func (e *AnalysisError) WithRule(rule string) *AnalysisError {
	e.Rule = rule

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewLexError creates a lexing error.
func NewLexError(code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeLex,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAnalysisError creates an error raised while running checks over a file.
func NewAnalysisError(code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeAnalysis,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err is an AnalysisError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Type == errType
	}

	return false
}

// Common error codes.
const (
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeReadFailed       = "ERR_READ_FAILED"
	ErrCodeDecodeFailed     = "ERR_DECODE_FAILED"
	ErrCodeCheckPanicked    = "ERR_CHECK_PANICKED"
	ErrCodeInvalidRange     = "ERR_INVALID_RANGE"
	ErrCodeUnknownRule      = "ERR_UNKNOWN_RULE"
	ErrCodeCatalogInvalid   = "ERR_CATALOG_INVALID"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
)

// FieldValidationError describes one invalid configuration field.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []*FieldValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(field string, value interface{}, message string) {
	vec.Errors = append(vec.Errors, &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
	})
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToAnalysisError converts the validation collection to an AnalysisError.
func (vec *ValidationErrorCollection) ToAnalysisError() *AnalysisError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.FieldName] = err.FieldValue
	}

	return &AnalysisError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeValidationFailed,
		Message: strings.Join(messages, "; "),
		Context: context,
	}
}
