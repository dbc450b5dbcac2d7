package fetch

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jfrog/jfrog-cli-hf-datasets/commonutils"
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub"
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub/hubtest"
	"github.com/jfrog/jfrog-cli-hf-datasets/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testDataset = "acme/speech"

const fakeGcloudScript = `#!/bin/sh
: > "$FAKE_GCLOUD_ARGS"
for arg in "$@"; do
  printf '%s\n' "$arg" >> "$FAKE_GCLOUD_ARGS"
done
exit "${FAKE_GCLOUD_EXIT:-0}"
`

func buildTar(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	writer := tar.NewWriter(&buf)
	for name, content := range files {
		require.NoError(t, writer.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := writer.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func parquetOnlyFiles() map[string][]byte {
	return map[string][]byte{
		"README.md":          []byte("# speech"),
		"data/train.parquet": []byte("parquet-train"),
		"data/test.parquet":  []byte("parquet-test"),
	}
}

func filesWithArchive(t *testing.T) map[string][]byte {
	files := parquetOnlyFiles()
	files["audio/clips.tar"] = buildTar(t, map[string]string{"clips/a.wav": "wave-a", "clips/b.wav": "wave-b"})
	return files
}

func newTestFetchCommand(fakeHub *hubtest.FakeHub, outputDir string) *FetchCommand {
	return NewFetchCommand().
		SetDatasetId(testDataset).
		SetEndpoint(fakeHub.Url()).
		SetToken("hf_test").
		SetOutputDir(outputDir).
		SetFormat(stats.FormatJson)
}

// installFakeGcloud returns the fake executable path and the file its arguments are recorded in.
func installFakeGcloud(t *testing.T, exitCode string) (string, string) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	executable := filepath.Join(t.TempDir(), "gcloud")
	require.NoError(t, os.WriteFile(executable, []byte(fakeGcloudScript), 0o755))
	argsFile := filepath.Join(t.TempDir(), "args")
	t.Setenv("FAKE_GCLOUD_ARGS", argsFile)
	t.Setenv("FAKE_GCLOUD_EXIT", exitCode)
	t.Setenv("CLOUDSDK_CONFIG", t.TempDir())
	return executable, argsFile
}

func TestFetchCommand_ParquetOnlySkipsExtraction(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDataset, parquetOnlyFiles())
	outputDir := t.TempDir()

	cmd := newTestFetchCommand(fakeHub, outputDir)
	require.NoError(t, cmd.Run())

	datasetDir := filepath.Join(outputDir, "speech")
	assert.FileExists(t, filepath.Join(datasetDir, "data", "train.parquet"))
	assert.FileExists(t, filepath.Join(datasetDir, "data", "test.parquet"))
	assert.NoFileExists(t, filepath.Join(datasetDir, "README.md"))
	result := cmd.Result()
	assert.Equal(t, 2, result.ParquetFiles)
	assert.Zero(t, result.Archives)
	assert.Zero(t, result.ExtractedArchives)
	assert.Equal(t, 2, result.DownloadedFiles)
	assert.Empty(t, result.TransferCommand)
	assert.False(t, result.DryRun)
}

func TestFetchCommand_ExtractsAndRemovesArchives(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDataset, filesWithArchive(t))
	outputDir := t.TempDir()

	cmd := newTestFetchCommand(fakeHub, outputDir)
	require.NoError(t, cmd.Run())

	datasetDir := filepath.Join(outputDir, "speech")
	assert.NoFileExists(t, filepath.Join(datasetDir, "audio", "clips.tar"))
	content, err := os.ReadFile(filepath.Join(datasetDir, "audio", "clips", "a.wav"))
	require.NoError(t, err)
	assert.Equal(t, "wave-a", string(content))
	assert.FileExists(t, filepath.Join(datasetDir, "audio", "clips", "b.wav"))
	assert.Equal(t, 1, cmd.Result().ExtractedArchives)
	assert.Equal(t, 1, cmd.Result().RemovedArchives)
}

func TestFetchCommand_KeepArchives(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDataset, filesWithArchive(t))
	outputDir := t.TempDir()

	cmd := newTestFetchCommand(fakeHub, outputDir).SetKeepArchives(true)
	require.NoError(t, cmd.Run())

	datasetDir := filepath.Join(outputDir, "speech")
	assert.FileExists(t, filepath.Join(datasetDir, "audio", "clips.tar"))
	assert.FileExists(t, filepath.Join(datasetDir, "audio", "clips", "a.wav"))
	assert.Equal(t, 1, cmd.Result().ExtractedArchives)
	assert.Zero(t, cmd.Result().RemovedArchives)
}

func TestFetchCommand_ExtractDir(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDataset, filesWithArchive(t))
	outputDir := t.TempDir()
	extractDir := filepath.Join(t.TempDir(), "extracted")

	cmd := newTestFetchCommand(fakeHub, outputDir).SetExtractDir(extractDir).SetThreads(3)
	require.NoError(t, cmd.Run())
	assert.FileExists(t, filepath.Join(extractDir, "clips", "a.wav"))
	assert.NoDirExists(t, filepath.Join(outputDir, "speech", "audio", "clips"))
}

func TestFetchCommand_TransferReceivesPassThroughArgs(t *testing.T) {
	executable, argsFile := installFakeGcloud(t, "0")
	fakeHub := hubtest.NewFakeHub(t, testDataset, filesWithArchive(t))
	outputDir := t.TempDir()
	passThrough := []string{"gs://bucket/speech", "--project", "my project", "--gcloud", "-q"}

	cmd := newTestFetchCommand(fakeHub, outputDir).SetTransferCommand(executable).SetPassThroughArgs(passThrough)
	require.NoError(t, cmd.Run())

	content, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	recorded := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	assert.Equal(t, []string{"storage", "cp", "-r", filepath.Join(outputDir, "speech")}, recorded[:4])
	assert.Equal(t, passThrough, recorded[4:])
	assert.Contains(t, cmd.Result().TransferCommand, "gs://bucket/speech")
}

func TestFetchCommand_TransferExitCodePropagates(t *testing.T) {
	executable, _ := installFakeGcloud(t, "3")
	fakeHub := hubtest.NewFakeHub(t, testDataset, parquetOnlyFiles())

	err := newTestFetchCommand(fakeHub, t.TempDir()).SetTransferCommand(executable).SetPassThroughArgs([]string{"gs://bucket"}).Run()
	require.Error(t, err)
	assert.Equal(t, 3, commonutils.GetExitCode(err))
}

func TestFetchCommand_NonexistentDatasetWritesNothing(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, "acme/other", parquetOnlyFiles())
	outputDir := filepath.Join(t.TempDir(), "out")

	err := newTestFetchCommand(fakeHub, outputDir).Run()
	assert.ErrorIs(t, err, hub.ErrDatasetNotFound)
	assert.NotZero(t, commonutils.GetExitCode(err))
	assert.NoDirExists(t, outputDir)
	assert.Empty(t, fakeHub.Downloads())
}

func TestFetchCommand_NoAssets(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDataset, map[string][]byte{"README.md": []byte("hi"), "data.csv": []byte("a,b")})
	outputDir := filepath.Join(t.TempDir(), "out")

	err := newTestFetchCommand(fakeHub, outputDir).Run()
	assert.ErrorIs(t, err, hub.ErrNoAssets)
	assert.Equal(t, 1, commonutils.GetExitCode(err))
	assert.NoDirExists(t, outputDir)
}

func TestFetchCommand_DryRunWritesNothing(t *testing.T) {
	executable, argsFile := installFakeGcloud(t, "0")
	fakeHub := hubtest.NewFakeHub(t, testDataset, filesWithArchive(t))
	outputDir := filepath.Join(t.TempDir(), "out")

	cmd := newTestFetchCommand(fakeHub, outputDir).SetDryRun(true).SetTransferCommand(executable).SetPassThroughArgs([]string{"gs://bucket"})
	require.NoError(t, cmd.Run())
	assert.NoDirExists(t, outputDir)
	assert.NoFileExists(t, argsFile)
	assert.Empty(t, fakeHub.Downloads())
	assert.True(t, cmd.Result().DryRun)
	assert.Len(t, cmd.Result().Files, 3)
	for _, file := range cmd.Result().Files {
		assert.Equal(t, stats.StatusPlanned, file.Status)
	}
}

func TestFetchCommand_Validation(t *testing.T) {
	testCases := []struct {
		testName string
		cmd      *FetchCommand
		expected string
	}{
		{"invalid dataset id", NewFetchCommand().SetDatasetId("speech").SetOutputDir("out"), "expected the form"},
		{"missing output dir", NewFetchCommand().SetDatasetId(testDataset), "--output-dir"},
		{"unsupported backend", NewFetchCommand().SetDatasetId(testDataset).SetOutputDir("out").SetBackend("ftp"), "unsupported backend"},
		{"unsupported format", NewFetchCommand().SetDatasetId(testDataset).SetOutputDir("out").SetFormat("yaml"), "unsupported format"},
	}
	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			assert.ErrorContains(t, tc.cmd.Run(), tc.expected)
		})
	}
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListRepoFiles(datasetId hub.DatasetId, revision string) ([]hub.RepoFile, error) {
	args := m.Called(datasetId, revision)
	files, _ := args.Get(0).([]hub.RepoFile)
	return files, args.Error(1)
}

type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) Download(datasetId hub.DatasetId, revision string, files []hub.RepoFile, destDir string) ([]hub.LocalFile, error) {
	args := m.Called(datasetId, revision, files, destDir)
	localFiles, _ := args.Get(0).([]hub.LocalFile)
	return localFiles, args.Error(1)
}

func TestFetchCommand_UsesInjectedListerAndDownloader(t *testing.T) {
	datasetId := hub.DatasetId{Owner: "acme", Name: "speech"}
	outputDir := t.TempDir()
	datasetDir := filepath.Join(outputDir, "speech")
	files := []hub.RepoFile{
		{Type: "file", Path: "b.parquet", Size: 2},
		{Type: "file", Path: "a.parquet", Size: 1},
		{Type: "file", Path: "notes.txt", Size: 3},
	}
	assets := []hub.RepoFile{files[1], files[0]}
	localFiles := []hub.LocalFile{
		{Remote: files[1], LocalPath: filepath.Join(datasetDir, "a.parquet"), Sha256: "aa"},
		{Remote: files[0], LocalPath: filepath.Join(datasetDir, "b.parquet"), Sha256: "bb", Skipped: true},
	}

	lister := new(mockLister)
	lister.On("ListRepoFiles", datasetId, "v1.0").Return(files, nil).Once()
	downloader := new(mockDownloader)
	downloader.On("Download", datasetId, "v1.0", assets, datasetDir).Return(localFiles, nil).Once()

	cmd := NewFetchCommand().SetDatasetId(testDataset).SetRevision("v1.0").SetOutputDir(outputDir).
		SetFormat(stats.FormatText).SetLister(lister).SetDownloader(downloader)
	require.NoError(t, cmd.Run())

	lister.AssertExpectations(t)
	downloader.AssertExpectations(t)
	result := cmd.Result()
	assert.Equal(t, 1, result.DownloadedFiles)
	assert.Equal(t, 1, result.SkippedFiles)
	assert.Equal(t, []stats.FileStats{
		{Path: "a.parquet", Kind: stats.KindParquet, Size: 1, Sha256: "aa", Status: stats.StatusDownloaded},
		{Path: "b.parquet", Kind: stats.KindParquet, Size: 2, Sha256: "bb", Status: stats.StatusSkipped},
	}, result.Files)
}

func TestFetchCommand_DownloadFailureIsFatal(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListRepoFiles", mock.Anything, mock.Anything).Return([]hub.RepoFile{{Type: "file", Path: "a.tar", Size: 1}}, nil)
	downloader := new(mockDownloader)
	downloadErr := errors.New("connection reset")
	downloader.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, downloadErr)

	err := NewFetchCommand().SetDatasetId(testDataset).SetOutputDir(t.TempDir()).SetLister(lister).SetDownloader(downloader).Run()
	assert.ErrorIs(t, err, downloadErr)
	assert.Equal(t, 1, commonutils.GetExitCode(err))
}

func TestFetchCommand_CorruptArchiveIsFatalAndKept(t *testing.T) {
	files := parquetOnlyFiles()
	files["audio/clips.tar.gz"] = []byte("not gzip at all")
	fakeHub := hubtest.NewFakeHub(t, testDataset, files)
	outputDir := t.TempDir()

	err := newTestFetchCommand(fakeHub, outputDir).Run()
	assert.Error(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "speech", "audio", "clips.tar.gz"))
}
