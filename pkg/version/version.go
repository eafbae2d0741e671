// Package version reports the build version of tablefold.
package version

// version is set at build time with
// -ldflags "-X github.com/rshade/tablefold/pkg/version.version=v1.2.3".
var version = "dev" //nolint:gochecknoglobals // Set via ldflags

// GetVersion returns the build version.
func GetVersion() string {
	return version
}
