// SPDX-License-Identifier: MIT
//
// Package build carries version metadata injected at link time, e.g.:
//
//	go build -ldflags "-X audioviz/pkg/build.buildVersion=0.3.0 \
//	                   -X audioviz/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds that skip the flags get usable defaults instead
// of an error, so a plain `go run .` always works.
package build

// Flags holds the build information for the running binary.
type Flags struct {
	Name    string // Application name
	Time    string // Build timestamp
	Commit  string // Git commit hash
	Version string // Semantic version
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	flags = Flags{
		Name:    "audioviz",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies any link-time values over the development
// defaults. Call it once early in startup.
func Initialize() {
	if buildName != "" {
		flags.Name = buildName
	}
	if buildTime != "" {
		flags.Time = buildTime
	}
	if buildCommit != "" {
		flags.Commit = buildCommit
	}
	if buildVersion != "" {
		flags.Version = buildVersion
	}
}

// Info returns the current build information.
func Info() Flags {
	return flags
}
