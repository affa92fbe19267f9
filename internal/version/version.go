package version

import (
	_ "embed"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionFile string

// Build-time variables set via ldflags
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// reportFormat is bumped whenever the JSON report layout changes
const reportFormat = "1.0.0"

// Version returns the current version of schemadiff
func Version() string {
	return strings.TrimSpace(versionFile)
}

// App returns the application version recorded in reports
func App() string {
	return Version()
}

// ReportFormat returns the version of the JSON report layout
func ReportFormat() string {
	return reportFormat
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	return GitCommit
}

// GetBuildDate returns the git commit date
func GetBuildDate() string {
	return BuildDate
}

// Platform returns the OS/architecture combination
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
