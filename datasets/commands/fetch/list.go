package fetch

import (
	"fmt"

	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub"
	"github.com/jfrog/jfrog-cli-hf-datasets/stats"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

// ListCommand prints the parquet files and tar archives of a dataset without downloading anything.
type ListCommand struct {
	hubOptions
	displayLimit int
	result       *stats.ListStats
}

func NewListCommand() *ListCommand {
	return &ListCommand{hubOptions: newHubOptions(), displayLimit: stats.DefaultDisplayLimit}
}

func (lc *ListCommand) SetDatasetId(datasetId string) *ListCommand {
	lc.datasetId = datasetId
	return lc
}

func (lc *ListCommand) SetRevision(revision string) *ListCommand {
	lc.revision = revision
	return lc
}

func (lc *ListCommand) SetEndpoint(endpoint string) *ListCommand {
	lc.endpoint = endpoint
	return lc
}

func (lc *ListCommand) SetToken(token string) *ListCommand {
	lc.token = token
	return lc
}

func (lc *ListCommand) SetRetries(retries, retryWaitMilliSecs int) *ListCommand {
	lc.retries = retries
	lc.retryWaitMilliSecs = retryWaitMilliSecs
	return lc
}

func (lc *ListCommand) SetFormat(format string) *ListCommand {
	lc.format = format
	return lc
}

func (lc *ListCommand) SetLister(lister hub.Lister) *ListCommand {
	lc.lister = lister
	return lc
}

// SetDisplayLimit caps the rows of table and text output. Zero shows everything.
func (lc *ListCommand) SetDisplayLimit(displayLimit int) *ListCommand {
	lc.displayLimit = displayLimit
	return lc
}

func (lc *ListCommand) CommandName() string {
	return "hf_datasets_list"
}

func (lc *ListCommand) Result() *stats.ListStats {
	return lc.result
}

func (lc *ListCommand) Run() error {
	datasetId, err := lc.validate()
	if err != nil {
		return err
	}
	lister, err := lc.getLister()
	if err != nil {
		return err
	}
	files, err := lister.ListRepoFiles(datasetId, lc.getRevision())
	if err != nil {
		return err
	}
	assets := hub.ClassifyFiles(files)
	log.Debug(fmt.Sprintf("%d of %d repository entries are parquet files or tar archives", len(assets.All()), len(files)))
	lc.result = &stats.ListStats{
		DatasetId: datasetId.String(),
		Revision:  lc.getRevision(),
		TotalSize: assets.TotalSize(),
		Files:     toFileStats(assets.All(), stats.StatusListed),
	}
	if err = stats.NewGenericResultsWriter(lc.result, lc.format, lc.displayLimit).Print(); err != nil {
		return err
	}
	if assets.IsEmpty() {
		return errorutils.CheckError(fmt.Errorf("%w in dataset %s", hub.ErrNoAssets, datasetId))
	}
	return nil
}
