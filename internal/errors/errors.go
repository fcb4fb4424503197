package errors

import (
	"fmt"
	"sync"
	"time"
)

// FileError is a file-scoped analysis failure forwarded to the reporter
// in place of the file's issues.
type FileError struct {
	File      string    `json:"file" yaml:"file"`
	Message   string    `json:"message" yaml:"message"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Severity represents the severity of an error
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in JSON and YAML reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Error implements the error interface
func (fe *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", fe.File, fe.Severity, fe.Message)
}

// ErrorCollector collects file errors and general errors
type ErrorCollector struct {
	fileErrors []FileError
	errors     []error
	mutex      sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		fileErrors: make([]FileError, 0),
		errors:     make([]error, 0),
	}
}

// Add adds a file error to the collector
func (ec *ErrorCollector) Add(err FileError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.fileErrors = append(ec.fileErrors, err)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns all collected file errors
func (ec *ErrorCollector) GetErrors() []FileError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]FileError, len(ec.fileErrors))
	copy(result, ec.fileErrors)
	return result
}

// GetAllErrors returns all collected errors (file and general)
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	allErrors := make([]error, 0, len(ec.fileErrors)+len(ec.errors))
	for i := range ec.fileErrors {
		fe := ec.fileErrors[i]
		allErrors = append(allErrors, &fe)
	}
	allErrors = append(allErrors, ec.errors...)

	return allErrors
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.fileErrors) > 0 || len(ec.errors) > 0
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.fileErrors = ec.fileErrors[:0]
	ec.errors = ec.errors[:0]
}

// GetErrorsByFile returns errors for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []FileError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileErrors []FileError
	for _, err := range ec.fileErrors {
		if err.File == file {
			fileErrors = append(fileErrors, err)
		}
	}
	return fileErrors
}
