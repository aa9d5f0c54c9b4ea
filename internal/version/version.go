package version

import (
	"runtime"
)

// Overridden at link time: -ldflags "-X github.com/MrSnakeDoc/printshare/internal/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// UserAgent identifies the daemon in outbound IPP requests.
func UserAgent() string {
	return "printshare/" + Version + " (" + runtime.GOOS + "; " + GoVersion + ")"
}
