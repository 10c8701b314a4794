// Package version carries build metadata injected at link time.
package version

var (
	// Version is the semantic version of the build.
	Version = "2.0.0"
	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"
)
