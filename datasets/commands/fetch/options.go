package fetch

import (
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub"
	"github.com/jfrog/jfrog-cli-hf-datasets/stats"
	"github.com/jfrog/jfrog-cli-core/v2/utils/config"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
)

// hubOptions are shared by the commands that talk to the hub.
type hubOptions struct {
	datasetId          string
	revision           string
	endpoint           string
	token              string
	retries            int
	retryWaitMilliSecs int
	format             string
	lister             hub.Lister
	client             *hub.Client
}

func newHubOptions() hubOptions {
	return hubOptions{revision: hub.DefaultRevision, format: stats.FormatTable}
}

func (ho *hubOptions) validate() (hub.DatasetId, error) {
	datasetId, err := hub.ParseDatasetId(ho.datasetId)
	if err != nil {
		return hub.DatasetId{}, err
	}
	if !stats.IsSupportedFormat(ho.format) {
		return hub.DatasetId{}, errorutils.CheckErrorf("unsupported format '%s'. Possible values: %s, %s, %s",
			ho.format, stats.FormatTable, stats.FormatJson, stats.FormatText)
	}
	return datasetId, nil
}

func (ho *hubOptions) getRevision() string {
	if ho.revision == "" {
		return hub.DefaultRevision
	}
	return ho.revision
}

func (ho *hubOptions) newClient() (*hub.Client, error) {
	if ho.client != nil {
		return ho.client, nil
	}
	client, err := hub.NewClient(hub.ClientOptions{
		Endpoint:           ho.endpoint,
		Token:              hub.ResolveToken(ho.token),
		Retries:            ho.retries,
		RetryWaitMilliSecs: ho.retryWaitMilliSecs,
	})
	if err != nil {
		return nil, err
	}
	ho.client = client
	return client, nil
}

func (ho *hubOptions) getLister() (hub.Lister, error) {
	if ho.lister != nil {
		return ho.lister, nil
	}
	return ho.newClient()
}

// ServerDetails is nil: the hub is not a JFrog Platform server, so no usage is reported for it.
func (ho *hubOptions) ServerDetails() (*config.ServerDetails, error) {
	return nil, nil
}
