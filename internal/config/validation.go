package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/logging"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

func (vr *ValidationResult) fail(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

func (vr *ValidationResult) warn(field string, value interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

// Validate returns a validation error listing every invalid field, or nil.
// Warnings never fail validation.
func Validate(config *Config) error {
	result := ValidateWithDetails(config)
	if !result.HasErrors() {
		return nil
	}

	var collection errors.ValidationErrorCollection
	for _, e := range result.Errors {
		collection.AddField(e.Field, e.Value, e.Message)
	}
	return collection.ToAnalysisError()
}

// ValidateWithDetails performs comprehensive validation with detailed feedback
func ValidateWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateAnalysisConfig(&config.Analysis, result)
	validateRulesConfig(&config.Rules, result)
	validateOutputConfig(&config.Output, result)
	validateWatchConfig(&config.Watch, result)
	validateLogConfig(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateAnalysisConfig(config *AnalysisConfig, result *ValidationResult) {
	if len(config.Paths) == 0 {
		result.fail("analysis.paths", config.Paths, "at least one path is required",
			"Use '.' to analyze the current directory")
	}
	for _, path := range config.Paths {
		if err := validatePath(path); err != nil {
			result.fail("analysis.paths", path, err.Error())
		}
	}

	for field, patterns := range map[string][]string{
		"analysis.exclude_patterns": config.ExcludePatterns,
		"analysis.test_patterns":    config.TestPatterns,
	} {
		for _, pattern := range patterns {
			if _, err := filepath.Match(pattern, ""); err != nil {
				result.fail(field, pattern, fmt.Sprintf("malformed pattern %q", pattern),
					"Patterns use filepath.Match syntax: *, ? and [ranges]")
			}
		}
	}

	for _, suffix := range config.Suffixes {
		switch {
		case strings.TrimPrefix(suffix, ".") == "":
			result.fail("analysis.suffixes", suffix, "empty suffix")
		case strings.ContainsAny(suffix, `/\`):
			result.fail("analysis.suffixes", suffix, "suffix must be a file extension, not a path")
		case strings.HasPrefix(suffix, "."):
			result.warn("analysis.suffixes", suffix, "leading dot is ignored",
				fmt.Sprintf("Write %q instead", strings.TrimPrefix(suffix, ".")))
		}
	}

	if config.Workers < 1 || config.Workers > 256 {
		result.fail("analysis.workers", config.Workers,
			fmt.Sprintf("workers %d is not in valid range 1-256", config.Workers))
	} else if limit := runtime.NumCPU() * 4; config.Workers > limit {
		result.warn("analysis.workers", config.Workers,
			fmt.Sprintf("more workers than useful on this machine (%d)", limit))
	}

	if config.Charset != "" {
		if _, err := htmlindex.Get(config.Charset); err != nil {
			result.fail("analysis.charset", config.Charset, fmt.Sprintf("unknown charset %q", config.Charset),
				"Use an encoding label such as 'utf-8' or 'iso-8859-1'",
				"Leave empty to detect the charset from each page")
		}
	}
}

func validateRulesConfig(config *RulesConfig, result *ValidationResult) {
	disabled := make(map[string]bool, len(config.Disabled))
	for _, key := range config.Disabled {
		if strings.TrimSpace(key) == "" {
			result.fail("rules.disabled", key, "empty rule key")
		}
		disabled[key] = true
	}
	for _, key := range config.Enabled {
		if strings.TrimSpace(key) == "" {
			result.fail("rules.enabled", key, "empty rule key")
		}
		if disabled[key] {
			result.warn("rules.enabled", key, fmt.Sprintf("rule %s is both enabled and disabled; it will not run", key))
		}
	}
}

func validateOutputConfig(config *OutputConfig, result *ValidationResult) {
	switch strings.ToLower(config.Format) {
	case "text", "json", "yaml", "yml":
	default:
		result.fail("output.format", config.Format, fmt.Sprintf("unknown format %q", config.Format),
			"Available formats: text, json, yaml")
	}

	switch config.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		result.fail("output.color", config.Color, fmt.Sprintf("unknown color mode %q", config.Color),
			"Available modes: auto, always, never")
	}
}

func validateWatchConfig(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.fail("watch.debounce", config.Debounce, "debounce cannot be negative")
	} else if config.Debounce > 10*time.Second {
		result.warn("watch.debounce", config.Debounce, "long debounce delays re-analysis noticeably")
	}
}

func validateLogConfig(config *LogConfig, result *ValidationResult) {
	if config.Level != "" {
		if _, err := logging.ParseLevel(config.Level); err != nil {
			result.fail("log.level", config.Level, err.Error(),
				"Available levels: debug, info, warn, error")
		}
	}
	switch config.Format {
	case "", "text", "json":
	default:
		result.fail("log.format", config.Format, fmt.Sprintf("unknown log format %q", config.Format),
			"Available formats: text, json")
	}
}

// validatePath validates a file path
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains NUL byte: %q", path)
	}
	return nil
}
