package buildinfo

// Set at link time:
//
//	-X 'github.com/m3rciful/gamerbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/gamerbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/gamerbot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	// Version is the release tag of the build.
	Version = "dev"
	// Commit is the source revision of the build.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)
