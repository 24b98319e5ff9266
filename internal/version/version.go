package version

// Set at build time via -ldflags "-X github.com/blobledger/indexer/internal/version.Version=..."
var (
	Version string
	Commit  string
)
