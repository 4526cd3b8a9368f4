// Package version carries build identification, stamped via -ldflags at
// release build time:
//
//	go build -ldflags "-X .../internal/version.Version=v0.3.0 \
//	                   -X .../internal/version.GitSHA=$(git rev-parse --short HEAD)"
package version

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"
)
