package hub

import (
	"path"
	"strings"

	"golang.org/x/exp/slices"
)

const parquetSuffix = ".parquet"

var tarSuffixes = []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".tar.zst"}

// RepoFile is a single file entry of a dataset repository tree.
type RepoFile struct {
	Type string   `json:"type"`
	Oid  string   `json:"oid"`
	Size int64    `json:"size"`
	Path string   `json:"path"`
	Lfs  *LfsInfo `json:"lfs,omitempty"`
}

// LfsInfo is present for files stored through git-lfs. Oid is the sha256 of the content.
type LfsInfo struct {
	Oid         string `json:"oid"`
	Size        int64  `json:"size"`
	PointerSize int    `json:"pointerSize"`
}

func (rf RepoFile) IsLfs() bool {
	return rf.Lfs != nil
}

// Assets holds the repository files the fetch pipeline cares about.
type Assets struct {
	Parquet  []RepoFile
	Archives []RepoFile
}

func (a Assets) IsEmpty() bool {
	return len(a.Parquet) == 0 && len(a.Archives) == 0
}

// All returns parquet files and archives sorted by path, without duplicates.
func (a Assets) All() []RepoFile {
	all := make([]RepoFile, 0, len(a.Parquet)+len(a.Archives))
	all = append(all, a.Parquet...)
	all = append(all, a.Archives...)
	slices.SortFunc(all, func(x, y RepoFile) int {
		return strings.Compare(x.Path, y.Path)
	})
	return slices.CompactFunc(all, func(x, y RepoFile) bool {
		return x.Path == y.Path
	})
}

// TotalSize sums the remote size of all assets.
func (a Assets) TotalSize() int64 {
	var total int64
	for _, file := range a.All() {
		total += file.Size
	}
	return total
}

// ClassifyFiles splits repository files into parquet files and tar archives.
// Anything else is dropped.
func ClassifyFiles(files []RepoFile) Assets {
	var assets Assets
	for _, file := range files {
		if file.Type == "directory" {
			continue
		}
		switch {
		case IsParquet(file.Path):
			assets.Parquet = append(assets.Parquet, file)
		case IsTarArchive(file.Path):
			assets.Archives = append(assets.Archives, file)
		}
	}
	return assets
}

// IsParquet reports whether any suffix of the file name is ".parquet",
// so sharded names such as "train.parquet.part-0" still count.
func IsParquet(filePath string) bool {
	return slices.Contains(suffixes(filePath), parquetSuffix)
}

// IsTarArchive matches the last suffix or the last two suffixes merged,
// e.g. ".tar" or ".tar.gz".
func IsTarArchive(filePath string) bool {
	sfx := suffixes(filePath)
	if len(sfx) == 0 {
		return false
	}
	last := sfx[len(sfx)-1]
	if slices.Contains(tarSuffixes, last) {
		return true
	}
	if len(sfx) >= 2 {
		return slices.Contains(tarSuffixes, sfx[len(sfx)-2]+last)
	}
	return false
}

// suffixes returns the dotted suffixes of the base name, lower-cased.
// A leading dot (hidden file) is not a suffix.
func suffixes(filePath string) []string {
	name := strings.TrimLeft(path.Base(filePath), ".")
	parts := strings.Split(strings.ToLower(name), ".")
	if len(parts) < 2 {
		return nil
	}
	result := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		result = append(result, "."+part)
	}
	return result
}
