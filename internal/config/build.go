package config

// Set at link time, for example:
//
//	go build -ldflags "-X transitinsight/internal/config.version=1.2.3 \
//	    -X transitinsight/internal/config.commit=$(git rev-parse --short HEAD)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo reads the linker-injected variables.
func NewBuildInfo() BuildInfo {
	return BuildInfo{Version: version, Commit: commit, BuildTime: buildTime}
}
