package fetch

import (
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/extract"
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub"
	"github.com/jfrog/jfrog-cli-hf-datasets/stats"
)

func newFetchStats(datasetId hub.DatasetId, revision, datasetDir string, assets hub.Assets) *stats.FetchStats {
	return &stats.FetchStats{
		DatasetId:    datasetId.String(),
		Revision:     revision,
		DatasetDir:   datasetDir,
		ParquetFiles: len(assets.Parquet),
		Archives:     len(assets.Archives),
		TotalSize:    assets.TotalSize(),
		Files:        toFileStats(assets.All(), stats.StatusPlanned),
	}
}

func toFileStats(files []hub.RepoFile, status string) []stats.FileStats {
	fileStats := make([]stats.FileStats, 0, len(files))
	for _, file := range files {
		fileStats = append(fileStats, stats.FileStats{Path: file.Path, Kind: assetKind(file.Path), Size: file.Size, Status: status})
	}
	return fileStats
}

func assetKind(repoPath string) string {
	if hub.IsParquet(repoPath) {
		return stats.KindParquet
	}
	return stats.KindArchive
}

func addDownloads(fetchStats *stats.FetchStats, localFiles []hub.LocalFile) {
	byPath := make(map[string]hub.LocalFile, len(localFiles))
	for _, localFile := range localFiles {
		byPath[localFile.Remote.Path] = localFile
		if localFile.Skipped {
			fetchStats.SkippedFiles++
		} else {
			fetchStats.DownloadedFiles++
		}
	}
	for i, file := range fetchStats.Files {
		localFile, ok := byPath[file.Path]
		if !ok {
			continue
		}
		fetchStats.Files[i].Sha256 = localFile.Sha256
		fetchStats.Files[i].Status = stats.StatusDownloaded
		if localFile.Skipped {
			fetchStats.Files[i].Status = stats.StatusSkipped
		}
	}
}

func addExtractions(fetchStats *stats.FetchStats, results []extract.Result) {
	for _, result := range results {
		if result.Archive == "" || result.Missing {
			continue
		}
		fetchStats.ExtractedArchives++
		if result.Removed {
			fetchStats.RemovedArchives++
		}
	}
}
