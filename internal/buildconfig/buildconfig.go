package buildconfig

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/breathcosmos/internal/buildconfig.version=...
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

// Info is the build metadata reported on /health.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date,omitempty"`
}

func Version() string {
	return version
}

func Commit() string {
	return commit
}

func Current() Info {
	return Info{Version: version, Commit: commit, BuildDate: buildDate}
}
