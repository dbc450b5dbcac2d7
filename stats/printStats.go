package stats

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jfrog/jfrog-cli-core/v2/utils/coreutils"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const DefaultDisplayLimit = 20

type GenericResultsWriter struct {
	data         interface{}
	format       string
	displayLimit int
}

func NewGenericResultsWriter(data interface{}, format string, displayLimit int) *GenericResultsWriter {
	return &GenericResultsWriter{
		data:         data,
		format:       format,
		displayLimit: displayLimit,
	}
}

func (rw *GenericResultsWriter) Print() error {
	if rw.data == nil {
		return nil
	}
	switch rw.format {
	case FormatJson:
		return rw.PrintJson()
	case FormatText:
		return rw.PrintConsole()
	default:
		return rw.PrintDashboard()
	}
}

func (rw *GenericResultsWriter) PrintJson() error {
	jsonBytes, err := json.MarshalIndent(rw.data, "", "  ")
	if err != nil {
		return errorutils.CheckError(err)
	}
	log.Output(string(jsonBytes))
	return nil
}

type TableRow struct {
	Metric string `col-name:"Metric"`
	Value  string `col-name:"Value"`
}

type FileRow struct {
	Path   string `col-name:"Path"`
	Kind   string `col-name:"Kind"`
	Size   string `col-name:"Size"`
	Status string `col-name:"Status"`
}

func (rw *GenericResultsWriter) PrintDashboard() error {
	switch v := rw.data.(type) {
	case *FetchStats:
		if err := PrintFetchDashboard(v); err != nil {
			return err
		}
		return PrintFilesDashboard(v.Files, rw.displayLimit)
	case *ListStats:
		title := text.FgCyan.Sprintf("%s@%s (%s)", v.DatasetId, v.Revision, FormatSize(v.TotalSize))
		log.Output(title)
		return PrintFilesDashboard(v.Files, rw.displayLimit)
	}
	return nil
}

func PrintFetchDashboard(fetchStats *FetchStats) error {
	summarySlice := []TableRow{
		{Metric: text.FgHiBlue.Sprint("Dataset"), Value: text.FgGreen.Sprint(fetchStats.DatasetId + "@" + fetchStats.Revision)},
		{Metric: text.FgHiBlue.Sprint("Dataset Directory"), Value: text.FgGreen.Sprint(fetchStats.DatasetDir)},
		{Metric: text.FgHiBlue.Sprint("Parquet Files"), Value: text.FgGreen.Sprint(fetchStats.ParquetFiles)},
		{Metric: text.FgHiBlue.Sprint("Tar Archives"), Value: text.FgGreen.Sprint(fetchStats.Archives)},
		{Metric: text.FgHiBlue.Sprint("Total Size"), Value: text.FgGreen.Sprint(FormatSize(fetchStats.TotalSize))},
	}
	if fetchStats.DryRun {
		summarySlice = append(summarySlice, TableRow{Metric: text.FgHiBlue.Sprint("Dry Run"), Value: text.FgYellow.Sprint("nothing was written")})
	} else {
		summarySlice = append(summarySlice,
			TableRow{Metric: text.FgHiBlue.Sprint("Downloaded Files"), Value: text.FgGreen.Sprint(fetchStats.DownloadedFiles)},
			TableRow{Metric: text.FgHiBlue.Sprint("Skipped Files"), Value: text.FgGreen.Sprint(fetchStats.SkippedFiles)},
			TableRow{Metric: text.FgHiBlue.Sprint("Extracted Archives"), Value: text.FgGreen.Sprint(fetchStats.ExtractedArchives)},
			TableRow{Metric: text.FgHiBlue.Sprint("Removed Archives"), Value: text.FgGreen.Sprint(fetchStats.RemovedArchives)},
		)
	}
	if fetchStats.TransferCommand != "" {
		summarySlice = append(summarySlice, TableRow{Metric: text.FgHiBlue.Sprint("Transfer"), Value: text.FgGreen.Sprint(fetchStats.TransferCommand)})
	}
	if err := coreutils.PrintTableWithBorderless(summarySlice, text.FgCyan.Sprint("Fetch Summary"), "", "No data found", false); err != nil {
		return errorutils.CheckError(err)
	}
	log.Output()
	return nil
}

func PrintFilesDashboard(files []FileStats, displayLimit int) error {
	loopRange := len(files)
	if displayLimit > 0 && loopRange > displayLimit {
		loopRange = displayLimit
	}
	tableData := make([]FileRow, 0, loopRange)
	for _, file := range files[:loopRange] {
		tableData = append(tableData, FileRow{
			Path:   text.FgHiBlue.Sprint(file.Path),
			Kind:   file.Kind,
			Size:   FormatSize(file.Size),
			Status: statusColor(file.Status).Sprint(file.Status),
		})
	}
	footer := ""
	if len(files) > loopRange {
		footer = text.FgYellow.Sprintf("\n...and %d more files. Refer JSON output format for complete list.", len(files)-loopRange)
	}
	if err := coreutils.PrintTableWithBorderless(tableData, text.FgCyan.Sprint("Assets"), footer, "No parquet or tar files found", false); err != nil {
		return errorutils.CheckError(err)
	}
	log.Output()
	return nil
}

func statusColor(status string) text.Color {
	switch status {
	case StatusDownloaded:
		return text.FgGreen
	case StatusSkipped, StatusPlanned:
		return text.FgYellow
	default:
		return text.Reset
	}
}

func (rw *GenericResultsWriter) PrintConsole() error {
	switch v := rw.data.(type) {
	case *FetchStats:
		log.Output("--- Fetch Summary ---")
		log.Output(FormatWithDisplayTags(v))
		PrintFilesConsole(v.Files, rw.displayLimit)
	case *ListStats:
		log.Output("--- Dataset Assets ---")
		log.Output(FormatWithDisplayTags(v))
		PrintFilesConsole(v.Files, rw.displayLimit)
	}
	return nil
}

func PrintFilesConsole(files []FileStats, displayLimit int) {
	if len(files) == 0 {
		log.Output("No parquet or tar files found")
		return
	}
	loopRange := len(files)
	if displayLimit > 0 && loopRange > displayLimit {
		loopRange = displayLimit
	}
	for _, file := range files[:loopRange] {
		log.Output(fmt.Sprintf("%s [%s, %s] %s", file.Path, file.Kind, FormatSize(file.Size), file.Status))
	}
	if len(files) > loopRange {
		log.Output(text.FgYellow.Sprintf("...and %d more files, Try JSON output format for complete list.", len(files)-loopRange))
	}
}

func FormatWithDisplayTags(v interface{}) string {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typeOfVal := val.Type()
	var builder strings.Builder
	for i := 0; i < val.NumField(); i++ {
		field := typeOfVal.Field(i)
		displayTag := field.Tag.Get("display")
		if displayTag == "" {
			continue
		}
		fieldValue := val.Field(i)
		builder.WriteString(fmt.Sprintf("%s: %v\n", displayTag, fieldValue.Interface()))
	}
	return builder.String()
}
