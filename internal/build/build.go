// Package build holds build-time information.
package build

// Version is the forge version. It defaults to "dev" and is overwritten
// by linker flags on release builds.
var Version = "dev"

// Commit is the VCS revision the binary was built from, if known.
var Commit = ""

// String returns the version, with the commit appended when available.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
