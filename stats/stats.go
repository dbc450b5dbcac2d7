package stats

import (
	"github.com/docker/go-units"
)

const (
	FormatTable = "table"
	FormatJson  = "json"
	FormatText  = "text"

	KindParquet = "parquet"
	KindArchive = "archive"

	StatusDownloaded = "downloaded"
	StatusSkipped    = "skipped"
	StatusPlanned    = "planned"
	StatusListed     = "listed"
)

// FileStats is one asset of a dataset as it appears in the summary.
type FileStats struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256,omitempty"`
	Status string `json:"status"`
}

// FetchStats summarizes a fetch run.
type FetchStats struct {
	DatasetId         string      `json:"dataset" display:"Dataset"`
	Revision          string      `json:"revision" display:"Revision"`
	DatasetDir        string      `json:"datasetDir" display:"Dataset directory"`
	DryRun            bool        `json:"dryRun" display:"Dry run"`
	ParquetFiles      int         `json:"parquetFiles" display:"Parquet files"`
	Archives          int         `json:"archives" display:"Tar archives"`
	DownloadedFiles   int         `json:"downloadedFiles" display:"Downloaded files"`
	SkippedFiles      int         `json:"skippedFiles" display:"Skipped files"`
	TotalSize         int64       `json:"totalSize"`
	ExtractedArchives int         `json:"extractedArchives" display:"Extracted archives"`
	RemovedArchives   int         `json:"removedArchives" display:"Removed archives"`
	TransferCommand   string      `json:"transferCommand,omitempty" display:"Transfer command"`
	Files             []FileStats `json:"files"`
}

// ListStats is the asset listing of a dataset.
type ListStats struct {
	DatasetId string      `json:"dataset" display:"Dataset"`
	Revision  string      `json:"revision" display:"Revision"`
	TotalSize int64       `json:"totalSize"`
	Files     []FileStats `json:"files"`
}

func IsSupportedFormat(format string) bool {
	return format == FormatTable || format == FormatJson || format == FormatText
}

func FormatSize(size int64) string {
	return units.BytesSize(float64(size))
}
