package version

import "runtime/debug"

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/stopwatchd/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns Version, falling back to the module version recorded by the
// Go toolchain when no ldflags were given.
func String() string {
	if Version != "unknown" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
