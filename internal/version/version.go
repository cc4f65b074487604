package version

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/docsync/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// UserAgent is sent with every wiki API request.
func UserAgent() string {
	return "docsync/" + Version
}

// String is the --version output.
func String() string {
	return "docsync " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
