package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating an AnalysisError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *AnalysisError {
	if err == nil {
		return nil
	}

	// Keep location and rule when re-wrapping
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return &AnalysisError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Cause:    ae,
			Context:  ae.Context,
			Rule:     ae.Rule,
			FilePath: ae.FilePath,
			Line:     ae.Line,
			Column:   ae.Column,
		}
	}

	return &AnalysisError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error on the given file
func WrapIO(err error, code, path string) *AnalysisError {
	ae := Wrap(err, ErrorTypeIO, code, "cannot read file")
	if ae != nil {
		ae.FilePath = path
	}
	return ae
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, message string) *AnalysisError {
	return Wrap(err, ErrorTypeConfig, ErrCodeConfigInvalid, message)
}

// FromPanic converts a recovered panic value into an analysis error.
func FromPanic(recovered interface{}, rule string) *AnalysisError {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}

	return NewAnalysisError(ErrCodeCheckPanicked, "check panicked", cause).WithRule(rule)
}

// Message joins the messages of err and its causes, outermost first. This is
// what gets forwarded as a file-level analysis error.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var ae *AnalysisError
	if errors.As(err, &ae) {
		if ae.Cause == nil {
			return ae.Message
		}
		return ae.Message + ": " + Message(ae.Cause)
	}

	return err.Error()
}
