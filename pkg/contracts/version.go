package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version of the energydash binaries.
	Version = "0.3.0"

	// APIVersion of the HTTP and WebSocket contracts.
	APIVersion = "v1"

	// TableLayoutVersion tracks the column layout of exported tables.
	TableLayoutVersion = "v1"
)

// Set with -ldflags "-X energydash/pkg/contracts.BuildTime=..." at build time.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	TableLayout  string `json:"table_layout"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		TableLayout:  TableLayoutVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// String renders the build as a single line, e.g.
// "energydash 0.3.0 (api v1, commit abc123, go1.24.3 linux/amd64)".
func (v VersionInfo) String() string {
	return fmt.Sprintf("energydash %s (api %s, commit %s, %s %s/%s)",
		v.Version, v.APIVersion, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}
