// Package version reports the build identity of the ecohtml binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fatih/color"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version        string    `json:"version" yaml:"version"`
	GitCommit      string    `json:"git_commit" yaml:"git_commit"`
	BuildTime      time.Time `json:"build_time" yaml:"build_time"`
	GoVersion      string    `json:"go_version" yaml:"go_version"`
	Platform       string    `json:"platform" yaml:"platform"`
	RuleRepository string    `json:"rule_repository" yaml:"rule_repository"`
	Rules          int       `json:"rules" yaml:"rules"`
}

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildTime is the time when the binary was built (RFC3339 format)
	BuildTime = "unknown"
)

var (
	nameColor    = color.New(color.FgGreen, color.Bold)
	versionColor = color.New(color.FgYellow, color.Bold)
	commitColor  = color.New(color.Faint)
)

// GetBuildInfo returns build information, with the rule repository the
// binary ships and its number of rules.
func GetBuildInfo(repository string, rules int) *BuildInfo {
	return &BuildInfo{
		Version:        GetVersion(),
		GitCommit:      GetGitCommit(),
		BuildTime:      parseISOTime(BuildTime),
		GoVersion:      runtime.Version(),
		Platform:       fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		RuleRepository: repository,
		Rules:          rules,
	}
}

// GetVersion returns the application version
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	// Try to get version from debug build info
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return fmt.Sprintf("dev-%s", setting.Value[:7])
			}
		}
	}

	return "dev"
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}

	return "unknown"
}

// GetShortVersion returns a short version string suitable for display
func GetShortVersion() string {
	version := GetVersion()
	commit := GetGitCommit()

	if commit != "unknown" && len(commit) >= 7 {
		shortCommit := commit[:7]
		if version != "dev" && !strings.HasPrefix(version, "dev-") {
			return fmt.Sprintf("%s (%s)", version, shortCommit)
		}
		return fmt.Sprintf("dev-%s", shortCommit)
	}

	return version
}

// Banner returns the one-line "ecohtml <version>" banner, colored when
// colored is set.
func Banner(colored bool) string {
	for _, c := range []*color.Color{nameColor, versionColor, commitColor} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	banner := nameColor.Sprint("ecohtml") + " " + versionColor.Sprint(GetVersion())
	if commit := GetGitCommit(); commit != "unknown" && len(commit) >= 7 {
		banner += " " + commitColor.Sprintf("(%s)", commit[:7])
	}
	if IsDirty() {
		banner += " (dirty)"
	}
	return banner
}

// GetDetailedVersion returns a detailed version string with all build info
func GetDetailedVersion(info *BuildInfo) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Version: %s", info.Version))

	if info.GitCommit != "unknown" {
		parts = append(parts, fmt.Sprintf("Commit: %s", info.GitCommit))
	}
	if !info.BuildTime.IsZero() {
		parts = append(parts, fmt.Sprintf("Built: %s", info.BuildTime.Format(time.RFC3339)))
	}

	parts = append(parts, fmt.Sprintf("Go: %s", info.GoVersion))
	parts = append(parts, fmt.Sprintf("Platform: %s", info.Platform))
	if info.RuleRepository != "" {
		parts = append(parts, fmt.Sprintf("Rules: %s (%d)", info.RuleRepository, info.Rules))
	}

	return strings.Join(parts, "\n")
}

// IsDirty returns true if the working directory was dirty when built
func IsDirty() bool {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.modified" {
				return setting.Value == "true"
			}
		}
	}
	return false
}

// parseISOTime parses an ISO 8601 time string, returns zero time on error
func parseISOTime(timeStr string) time.Time {
	if timeStr == "" || timeStr == "unknown" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t
		}
	}

	return time.Time{}
}
