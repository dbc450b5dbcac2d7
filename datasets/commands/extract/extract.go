package extract

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/jfrog/jfrog-cli-hf-datasets/commonutils"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/io/fileutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Extraction is IO bound; more workers than this only thrash the disk.
const MaxExtractThreads = 5

var ErrPathTraversal = errors.New("archive member escapes the extraction directory")

// Result describes what happened to a single archive.
type Result struct {
	Archive   string
	TargetDir string
	Entries   int
	SystemTar bool
	Removed   bool
	Missing   bool
}

type Extractor struct {
	targetDir    string
	keepArchives bool
	useSystemTar bool
	threads      int
}

func NewExtractor() *Extractor {
	return &Extractor{threads: 1}
}

// SetTargetDir extracts every archive into dir. When unset each archive is expanded next to itself.
func (e *Extractor) SetTargetDir(dir string) *Extractor {
	e.targetDir = dir
	return e
}

func (e *Extractor) SetKeepArchives(keep bool) *Extractor {
	e.keepArchives = keep
	return e
}

// SetUseSystemTar tries the tar executable first and falls back to the built-in extractor.
func (e *Extractor) SetUseSystemTar(useSystemTar bool) *Extractor {
	e.useSystemTar = useSystemTar
	return e
}

func (e *Extractor) SetThreads(threads int) *Extractor {
	e.threads = threads
	return e
}

// ExtractAll expands the archives, stopping at the first failure.
func (e *Extractor) ExtractAll(archives []string) ([]Result, error) {
	threads := e.threads
	if threads > MaxExtractThreads {
		threads = MaxExtractThreads
	}
	results := make([]Result, len(archives))
	err := commonutils.RunTasks(len(archives), threads, func(index int) error {
		result, err := e.Extract(archives[index])
		results[index] = result
		return err
	})
	return results, err
}

// Extract expands one archive and removes it unless archives are kept.
// A failed extraction never removes the archive.
func (e *Extractor) Extract(archivePath string) (result Result, err error) {
	result = Result{Archive: archivePath, TargetDir: e.targetDir}
	if result.TargetDir == "" {
		result.TargetDir = filepath.Dir(archivePath)
	}
	exists, err := fileutils.IsFileExists(archivePath, false)
	if err != nil {
		return
	}
	if !exists {
		log.Warn("Archive", archivePath, "does not exist, skipping extraction")
		result.Missing = true
		return
	}
	if err = fileutils.CreateDirIfNotExist(result.TargetDir); err != nil {
		return
	}

	log.Info("Extracting", filepath.Base(archivePath), "into", result.TargetDir)
	if e.useSystemTar {
		if tarErr := ExtractWithSystemTar(archivePath, result.TargetDir); tarErr == nil {
			result.SystemTar = true
		} else {
			log.Warn("System tar failed, using the built-in extractor:", tarErr.Error())
		}
	}
	if !result.SystemTar {
		if result.Entries, err = ExtractArchive(archivePath, result.TargetDir); err != nil {
			return result, errors.Wrapf(err, "failed to extract %s, the archive was kept", archivePath)
		}
	}

	if e.keepArchives {
		return
	}
	if err = errorutils.CheckError(os.Remove(archivePath)); err != nil {
		return
	}
	result.Removed = true
	log.Debug("Removed archive", archivePath)
	return
}

// ExtractArchive expands a (possibly compressed) tar archive into targetDir and returns the number of members written.
// Members resolving outside targetDir fail the extraction with ErrPathTraversal.
func ExtractArchive(archivePath, targetDir string) (entries int, err error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return 0, errorutils.CheckError(err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = errorutils.CheckError(closeErr)
		}
	}()

	reader, err := decompress(file, archivePath)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = reader.Close()
	}()

	if err = fileutils.CreateDirIfNotExist(targetDir); err != nil {
		return 0, err
	}
	// Members are checked against the physical location, so links inside the archive cannot hide an escape.
	absTarget, err := filepath.EvalSymlinks(targetDir)
	if err != nil {
		return 0, errorutils.CheckError(err)
	}
	if absTarget, err = filepath.Abs(absTarget); err != nil {
		return 0, errorutils.CheckError(err)
	}
	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, errors.Wrap(err, "corrupt archive "+filepath.Base(archivePath))
		}
		written, err := extractMember(tarReader, header, absTarget)
		if err != nil {
			return entries, err
		}
		if written {
			entries++
		}
	}
}

func extractMember(tarReader *tar.Reader, header *tar.Header, targetDir string) (bool, error) {
	target, err := memberPath(targetDir, header.Name)
	if err != nil {
		return false, err
	}
	if err = checkResolvedPath(targetDir, filepath.Dir(target), header.Name); err != nil {
		return false, err
	}
	switch header.Typeflag {
	case tar.TypeDir:
		return true, errorutils.CheckError(os.MkdirAll(target, 0o755))
	case tar.TypeReg:
		return true, writeMember(tarReader, target, header.FileInfo().Mode().Perm())
	case tar.TypeSymlink:
		if filepath.IsAbs(header.Linkname) {
			return false, errors.Wrapf(ErrPathTraversal, "symlink '%s' points to absolute path '%s'", header.Name, header.Linkname)
		}
		if _, err = memberPath(targetDir, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil {
			return false, err
		}
		// Not cleaned lexically: "d/.." must resolve through d when d is itself a link.
		if err = checkResolvedPath(targetDir, filepath.Dir(target)+string(filepath.Separator)+filepath.FromSlash(header.Linkname), header.Name); err != nil {
			return false, err
		}
		if err = prepareParent(target); err != nil {
			return false, err
		}
		return true, errorutils.CheckError(os.Symlink(header.Linkname, target))
	case tar.TypeLink:
		source, err := memberPath(targetDir, header.Linkname)
		if err != nil {
			return false, err
		}
		if err = checkResolvedPath(targetDir, source, header.Name); err != nil {
			return false, err
		}
		if err = prepareParent(target); err != nil {
			return false, err
		}
		return true, errorutils.CheckError(os.Link(source, target))
	default:
		log.Debug("Skipping unsupported archive member", header.Name, "of type", string(header.Typeflag))
		return false, nil
	}
}

// memberPath resolves a member name under targetDir, rejecting names that escape it.
func memberPath(targetDir, name string) (string, error) {
	cleanName := filepath.FromSlash(name)
	if filepath.IsAbs(cleanName) || strings.HasPrefix(name, "/") {
		return "", errors.Wrapf(ErrPathTraversal, "member '%s' is an absolute path", name)
	}
	target := filepath.Join(targetDir, cleanName)
	if !isWithin(targetDir, target) {
		return "", errors.Wrapf(ErrPathTraversal, "member '%s'", name)
	}
	return target, nil
}

// checkResolvedPath resolves the deepest existing ancestor of path through the symlinks already on disk
// and rejects member name when it lands outside targetDir.
func checkResolvedPath(targetDir, path, name string) error {
	existing := path
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return nil
		}
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		if os.IsNotExist(err) {
			// Dangling link; whatever is later written through it is checked again.
			return nil
		}
		return errorutils.CheckError(err)
	}
	if !isWithin(targetDir, resolved) {
		return errors.Wrapf(ErrPathTraversal, "member '%s' resolves to '%s'", name, resolved)
	}
	return nil
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func prepareParent(target string) error {
	if err := fileutils.CreateDirIfNotExist(filepath.Dir(target)); err != nil {
		return err
	}
	if _, err := os.Lstat(target); err == nil {
		return errorutils.CheckError(os.Remove(target))
	}
	return nil
}

func writeMember(reader io.Reader, target string, perm os.FileMode) (err error) {
	if err = prepareParent(target); err != nil {
		return
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errorutils.CheckError(err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = errorutils.CheckError(closeErr)
		}
	}()
	_, err = io.Copy(out, reader)
	return errors.Wrap(err, "failed writing "+target)
}

// decompress picks the decompressor from the archive suffix.
func decompress(reader io.Reader, archivePath string) (io.ReadCloser, error) {
	name := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gzipReader, err := pgzip.NewReader(reader)
		return gzipReader, errors.Wrap(err, "invalid gzip stream")
	case strings.HasSuffix(name, ".tar.bz2"):
		bzipReader, err := bzip2.NewReader(reader, nil)
		return bzipReader, errors.Wrap(err, "invalid bzip2 stream")
	case strings.HasSuffix(name, ".tar.xz"):
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, errors.Wrap(err, "invalid xz stream")
		}
		return io.NopCloser(xzReader), nil
	case strings.HasSuffix(name, ".tar.zst"):
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, errors.Wrap(err, "invalid zstd stream")
		}
		return decoder.IOReadCloser(), nil
	default:
		return io.NopCloser(reader), nil
	}
}
