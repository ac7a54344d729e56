// Package version exposes build metadata injected at link time.
package version

// These variables are set via -ldflags at build time.
//
//nolint:gochecknoglobals // Populated by the linker.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersion returns the semantic version of the binary.
func GetVersion() string {
	return version
}

// GetCommit returns the git commit the binary was built from.
func GetCommit() string {
	return commit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return date
}
