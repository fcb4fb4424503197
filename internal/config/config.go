// Package config provides configuration management for ecohtml using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the ECOHTML_ prefix and validation. It manages the analyzed
// paths and file selection, rule activation, report output and the watch
// loop.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/ecohtml/internal/errors"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "ECOHTML"

// FileName is the base name of the configuration file, without extension.
const FileName = ".ecohtml"

type Config struct {
	Analysis    AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Rules       RulesConfig    `mapstructure:"rules" yaml:"rules"`
	Output      OutputConfig   `mapstructure:"output" yaml:"output"`
	Watch       WatchConfig    `mapstructure:"watch" yaml:"watch"`
	Log         LogConfig      `mapstructure:"log" yaml:"log"`
	TargetFiles []string       `mapstructure:"-" yaml:"-"` // CLI arguments, not from config file
}

type AnalysisConfig struct {
	Paths           []string `mapstructure:"paths" yaml:"paths"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
	TestPatterns    []string `mapstructure:"test_patterns" yaml:"test_patterns"`
	Suffixes        []string `mapstructure:"suffixes" yaml:"suffixes"`
	Workers         int      `mapstructure:"workers" yaml:"workers"`
	Charset         string   `mapstructure:"charset" yaml:"charset"`
}

type RulesConfig struct {
	Enabled  []string `mapstructure:"enabled" yaml:"enabled"`
	Disabled []string `mapstructure:"disabled" yaml:"disabled"`
}

type OutputConfig struct {
	Format   string `mapstructure:"format" yaml:"format"`
	Color    string `mapstructure:"color" yaml:"color"`
	Measures bool   `mapstructure:"measures" yaml:"measures"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Color modes for the text report.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("analysis.paths", []string{"."})
	v.SetDefault("analysis.exclude_patterns", []string{"node_modules", ".git", "vendor"})
	v.SetDefault("analysis.test_patterns", []string{"*.test.html", "*.spec.html"})
	v.SetDefault("analysis.suffixes", []string{"php", "php3", "php4", "php5", "phtml", "inc", "vue"})
	v.SetDefault("analysis.workers", 1)
	v.SetDefault("analysis.charset", "utf-8")

	v.SetDefault("rules.enabled", []string{})
	v.SetDefault("rules.disabled", []string{})

	v.SetDefault("output.format", "text")
	v.SetDefault("output.color", ColorAuto)
	v.SetDefault("output.measures", false)

	v.SetDefault("watch.debounce", 300*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, filling unset keys with their
// defaults, and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, "decoding configuration")
	}

	// Slices set through environment variables arrive as one string
	for key, dst := range map[string]*[]string{
		"analysis.paths":            &config.Analysis.Paths,
		"analysis.exclude_patterns": &config.Analysis.ExcludePatterns,
		"analysis.test_patterns":    &config.Analysis.TestPatterns,
		"analysis.suffixes":         &config.Analysis.Suffixes,
		"rules.enabled":             &config.Rules.Enabled,
		"rules.disabled":            &config.Rules.Disabled,
	} {
		if v.IsSet(key) {
			*dst = v.GetStringSlice(key)
		}
	}

	if err := Validate(&config); err != nil {
		return nil, errors.WrapConfig(err, "invalid configuration")
	}

	return &config, nil
}
