// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "runtime/debug"

// Set with -ldflags "-X github.com/garyellow/ders-bilgi-bot/internal/buildinfo.Version=v1.2.0".
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// Release returns the version reported to error tracking and /livez:
// the injected Version, else the module version from the Go build info,
// else "dev".
func Release() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Fields returns the build metadata as log fields, skipping empty values.
func Fields() map[string]any {
	fields := map[string]any{"version": Release()}
	if Commit != "" {
		fields["commit"] = Commit
	}
	if BuildDate != "" {
		fields["build_date"] = BuildDate
	}
	return fields
}
