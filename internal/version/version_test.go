package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit, built string) {
	t.Helper()
	oldV, oldC, oldB := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = v, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldB })
}

func TestGetShortVersion(t *testing.T) {
	withVersion(t, "1.2.0", "abcdef0123456789", "2026-01-02T03:04:05Z")

	assert.Equal(t, "1.2.0", GetVersion())
	assert.Equal(t, "abcdef0123456789", GetGitCommit())
	assert.Equal(t, "1.2.0 (abcdef0)", GetShortVersion())
}

func TestGetBuildInfo(t *testing.T) {
	withVersion(t, "1.2.0", "abcdef0123456789", "2026-01-02T03:04:05Z")

	info := GetBuildInfo("creedengo-html", 1)
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), info.BuildTime)
	assert.Equal(t, 1, info.Rules)

	detailed := GetDetailedVersion(info)
	assert.Contains(t, detailed, "Version: 1.2.0")
	assert.Contains(t, detailed, "Commit: abcdef0123456789")
	assert.Contains(t, detailed, "Built: 2026-01-02T03:04:05Z")
	assert.Contains(t, detailed, "Rules: creedengo-html (1)")
}

func TestBanner(t *testing.T) {
	withVersion(t, "1.2.0", "abcdef0123456789", "unknown")

	plain := Banner(false)
	assert.True(t, strings.HasPrefix(plain, "ecohtml 1.2.0 (abcdef0)"))
	assert.NotContains(t, plain, "\x1b[")

	assert.Contains(t, Banner(true), "\x1b[")
}

func TestParseISOTime(t *testing.T) {
	assert.True(t, parseISOTime("unknown").IsZero())
	assert.True(t, parseISOTime("yesterday").IsZero())
	assert.Equal(t, 2026, parseISOTime("2026-05-06 07:08:09").Year())
}
