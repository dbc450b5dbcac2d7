package hub

const (
	BackendHttp = "http"
	BackendCli  = "cli"
)

// LocalFile is a repository file materialized on the local disk.
type LocalFile struct {
	Remote    RepoFile
	LocalPath string
	Sha256    string
	Sha1      string
	Md5       string
	// Skipped is set when an identical file was already present and nothing was transferred.
	Skipped bool
}

// Downloader materializes repository files under destDir, keeping their repository paths.
type Downloader interface {
	Download(datasetId DatasetId, revision string, files []RepoFile, destDir string) ([]LocalFile, error)
}

// IsSupportedBackend reports whether name selects a known download backend.
func IsSupportedBackend(name string) bool {
	return name == BackendHttp || name == BackendCli
}
