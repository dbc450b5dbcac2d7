package hub

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jfrog/jfrog-cli-hf-datasets/commonutils"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/io/fileutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const (
	incompleteSuffix = ".incomplete"
	progressBarWidth = 40
)

// HttpDownloader streams files straight from the hub resolve endpoint.
type HttpDownloader struct {
	client         *Client
	threads        int
	progressOutput io.Writer
}

func NewHttpDownloader(client *Client) *HttpDownloader {
	return &HttpDownloader{client: client, threads: 1}
}

func (hd *HttpDownloader) SetThreads(threads int) *HttpDownloader {
	hd.threads = threads
	return hd
}

// SetProgressOutput enables progress bars written to output. A nil output disables them.
func (hd *HttpDownloader) SetProgressOutput(output io.Writer) *HttpDownloader {
	hd.progressOutput = output
	return hd
}

func (hd *HttpDownloader) Download(datasetId DatasetId, revision string, files []RepoFile, destDir string) ([]LocalFile, error) {
	var progress *mpb.Progress
	if hd.progressOutput != nil {
		progress = mpb.New(mpb.WithOutput(hd.progressOutput), mpb.WithWidth(progressBarWidth))
	}
	results := make([]LocalFile, len(files))
	err := commonutils.RunTasks(len(files), hd.threads, func(index int) error {
		localFile, err := hd.downloadFile(datasetId, revision, files[index], destDir, progress)
		if err != nil {
			return err
		}
		results[index] = localFile
		return nil
	})
	if progress != nil {
		progress.Wait()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (hd *HttpDownloader) downloadFile(datasetId DatasetId, revision string, file RepoFile, destDir string, progress *mpb.Progress) (localFile LocalFile, err error) {
	localPath, err := JoinRepoPath(destDir, file.Path)
	if err != nil {
		return
	}
	localFile = LocalFile{Remote: file, LocalPath: localPath}

	if info, statErr := os.Stat(localPath); statErr == nil && !info.IsDir() && info.Size() == file.Size {
		if err = localFile.setChecksums(localPath); err != nil {
			return
		}
		if !file.IsLfs() || file.Lfs.Oid == "" || strings.EqualFold(file.Lfs.Oid, localFile.Sha256) {
			log.Info("Skipping", file.Path+",", "already downloaded")
			localFile.Skipped = true
			return
		}
		log.Warn("Existing", file.Path, "does not match the hub sha256, downloading it again")
		localFile = LocalFile{Remote: file, LocalPath: localPath}
	}
	if err = fileutils.CreateDirIfNotExist(filepath.Dir(localPath)); err != nil {
		return
	}

	body, err := hd.client.OpenFile(datasetId, revision, file.Path)
	if err != nil {
		return
	}
	defer func() {
		if closeErr := body.Close(); err == nil {
			err = errorutils.CheckError(closeErr)
		}
	}()

	var reader io.Reader = body
	if progress != nil && file.Size > 0 {
		bar := progress.AddBar(file.Size,
			mpb.PrependDecorators(decor.Name(shortName(file.Path), decor.WCSyncSpaceR)),
			mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f"), decor.Percentage(decor.WCSyncSpace)),
		)
		defer func() {
			if !bar.Completed() {
				bar.Abort(false)
			}
		}()
		reader = bar.ProxyReader(body)
	}

	tempPath := localPath + incompleteSuffix
	checksums, written, err := writeAndHash(tempPath, reader)
	if err != nil {
		_ = os.Remove(tempPath)
		return
	}
	if file.Size > 0 && written != file.Size {
		_ = os.Remove(tempPath)
		err = errorutils.CheckErrorf("incomplete download of %s: expected %d bytes, received %d", file.Path, file.Size, written)
		return
	}
	if file.IsLfs() && file.Lfs.Oid != "" && !strings.EqualFold(file.Lfs.Oid, checksums.sha256) {
		_ = os.Remove(tempPath)
		err = errorutils.CheckError(fmt.Errorf("%w for %s: expected sha256 %s, got %s", ErrChecksumMismatch, file.Path, file.Lfs.Oid, checksums.sha256))
		return
	}
	if err = errorutils.CheckError(os.Rename(tempPath, localPath)); err != nil {
		return
	}
	localFile.Sha256, localFile.Sha1, localFile.Md5 = checksums.sha256, checksums.sha1, checksums.md5
	log.Info("Downloaded", file.Path)
	return
}

func (lf *LocalFile) setChecksums(localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return errorutils.CheckError(err)
	}
	defer func() {
		_ = file.Close()
	}()
	checksums, _, err := hashReader(io.Discard, file)
	if err != nil {
		return err
	}
	lf.Sha256, lf.Sha1, lf.Md5 = checksums.sha256, checksums.sha1, checksums.md5
	return nil
}

type fileChecksums struct {
	sha256 string
	sha1   string
	md5    string
}

func writeAndHash(targetPath string, reader io.Reader) (checksums fileChecksums, written int64, err error) {
	out, err := os.Create(targetPath)
	if err != nil {
		err = errorutils.CheckError(err)
		return
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = errorutils.CheckError(closeErr)
		}
	}()
	return hashReader(out, reader)
}

func hashReader(out io.Writer, reader io.Reader) (fileChecksums, int64, error) {
	sha256Hash, sha1Hash, md5Hash := sha256.New(), sha1.New(), md5.New()
	written, err := io.Copy(io.MultiWriter(out, sha256Hash, sha1Hash, md5Hash), reader)
	if err != nil {
		return fileChecksums{}, written, errorutils.CheckError(err)
	}
	return fileChecksums{
		sha256: hexSum(sha256Hash),
		sha1:   hexSum(sha1Hash),
		md5:    hexSum(md5Hash),
	}, written, nil
}

func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// JoinRepoPath places a repository path under destDir and refuses paths escaping it.
func JoinRepoPath(destDir, repoPath string) (string, error) {
	joined := filepath.Join(destDir, filepath.FromSlash(repoPath))
	rel, err := filepath.Rel(destDir, joined)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(repoPath) {
		return "", errorutils.CheckErrorf("repository path '%s' resolves outside of %s", repoPath, destDir)
	}
	return joined, nil
}

func shortName(repoPath string) string {
	name := filepath.Base(filepath.FromSlash(repoPath))
	if len(name) > 30 {
		return name[:27] + "..."
	}
	return name
}
