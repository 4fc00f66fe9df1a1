package version

import (
	"runtime"
	rdebug "runtime/debug"
	"strings"
)

// Values here are set at build time through ldflags.
var (
	GitCommit       string
	GitBranch       string
	GitSummary      string
	BuildDate       string
	AppVersion      string
	AssetSDKVersion = assetSDKVersion()
	GoVersion       = runtime.Version()
)

// assetSDKVersion returns the cloud asset inventory SDK version from the build info.
func assetSDKVersion() string {
	buildInfo, ok := rdebug.ReadBuildInfo()
	if !ok {
		return ""
	}

	for _, d := range buildInfo.Deps {
		if strings.Contains(d.Path, "cloud.google.com/go/asset") {
			return d.Version
		}
	}

	return ""
}
