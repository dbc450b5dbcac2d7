package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jfrog/jfrog-client-go/utils/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	previous := log.GetLogger()
	log.SetLogger(log.NewLogger(log.INFO, &buf))
	t.Cleanup(func() { log.SetLogger(previous) })
	return &buf
}

func sampleFetchStats() *FetchStats {
	return &FetchStats{
		DatasetId:       "acme/speech",
		Revision:        "main",
		DatasetDir:      "/out/speech",
		ParquetFiles:    1,
		Archives:        1,
		DownloadedFiles: 2,
		TotalSize:       3072,
		Files: []FileStats{
			{Path: "data/train.parquet", Kind: KindParquet, Size: 1024, Status: StatusDownloaded},
			{Path: "audio/clips.tar", Kind: KindArchive, Size: 2048, Status: StatusSkipped},
		},
	}
}

func TestGenericResultsWriter_PrintJson(t *testing.T) {
	buf := captureOutput(t)
	require.NoError(t, NewGenericResultsWriter(sampleFetchStats(), FormatJson, DefaultDisplayLimit).Print())

	var decoded FetchStats
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *sampleFetchStats(), decoded)
}

func TestGenericResultsWriter_PrintConsole(t *testing.T) {
	buf := captureOutput(t)
	require.NoError(t, NewGenericResultsWriter(sampleFetchStats(), FormatText, DefaultDisplayLimit).Print())

	output := buf.String()
	assert.Contains(t, output, "Dataset: acme/speech")
	assert.Contains(t, output, "Downloaded files: 2")
	assert.Contains(t, output, "data/train.parquet [parquet, 1KiB] downloaded")
}

func TestGenericResultsWriter_PrintConsoleDisplayLimit(t *testing.T) {
	buf := captureOutput(t)
	listStats := &ListStats{DatasetId: "acme/speech", Revision: "main"}
	for i := 0; i < 5; i++ {
		listStats.Files = append(listStats.Files, FileStats{Path: fmt.Sprintf("part-%d.parquet", i), Kind: KindParquet, Status: StatusListed})
	}
	require.NoError(t, NewGenericResultsWriter(listStats, FormatText, 2).Print())

	output := buf.String()
	assert.Contains(t, output, "part-1.parquet")
	assert.NotContains(t, output, "part-2.parquet")
	assert.Contains(t, output, "...and 3 more files")
}

func TestGenericResultsWriter_PrintDashboard(t *testing.T) {
	captureOutput(t)
	assert.NoError(t, NewGenericResultsWriter(sampleFetchStats(), FormatTable, DefaultDisplayLimit).Print())
	dryRun := sampleFetchStats()
	dryRun.DryRun = true
	dryRun.TransferCommand = "gcloud storage cp -r /out/speech gs://bucket"
	assert.NoError(t, NewGenericResultsWriter(dryRun, FormatTable, 1).Print())
	assert.NoError(t, NewGenericResultsWriter(&ListStats{DatasetId: "acme/speech", Revision: "main"}, FormatTable, DefaultDisplayLimit).Print())
}

func TestGenericResultsWriter_NilData(t *testing.T) {
	assert.NoError(t, NewGenericResultsWriter(nil, FormatJson, DefaultDisplayLimit).Print())
}

func TestFormatWithDisplayTags(t *testing.T) {
	formatted := FormatWithDisplayTags(&ListStats{DatasetId: "acme/speech", Revision: "v1", TotalSize: 10})
	assert.Equal(t, "Dataset: acme/speech\nRevision: v1\n", formatted)
}

func TestIsSupportedFormat(t *testing.T) {
	for _, format := range []string{FormatTable, FormatJson, FormatText} {
		assert.True(t, IsSupportedFormat(format))
	}
	assert.False(t, IsSupportedFormat("yaml"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0B", FormatSize(0))
	assert.Equal(t, "1KiB", FormatSize(1024))
	assert.Equal(t, "1.5MiB", FormatSize(1024*1024*3/2))
}
