package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/extract"
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub"
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/transfer"
	"github.com/jfrog/jfrog-cli-hf-datasets/stats"
	buildUtils "github.com/jfrog/jfrog-cli-core/v2/common/build"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/io/fileutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

// FetchCommand lists a dataset's parquet and tar assets, downloads them, expands the archives
// and hands the result to the storage transfer command.
type FetchCommand struct {
	hubOptions
	outputDir          string
	keepArchives       bool
	extractDir         string
	useSystemTar       bool
	threads            int
	dryRun             bool
	backend            string
	hfTransfer         bool
	progress           bool
	transferCommand    string
	passThroughArgs    []string
	buildConfiguration *buildUtils.BuildConfiguration
	downloader         hub.Downloader
	result             *stats.FetchStats
}

func NewFetchCommand() *FetchCommand {
	return &FetchCommand{
		hubOptions:      newHubOptions(),
		threads:         1,
		backend:         hub.BackendHttp,
		transferCommand: transfer.DefaultExecutable,
	}
}

func (fc *FetchCommand) SetDatasetId(datasetId string) *FetchCommand {
	fc.datasetId = datasetId
	return fc
}

func (fc *FetchCommand) SetRevision(revision string) *FetchCommand {
	fc.revision = revision
	return fc
}

func (fc *FetchCommand) SetEndpoint(endpoint string) *FetchCommand {
	fc.endpoint = endpoint
	return fc
}

func (fc *FetchCommand) SetToken(token string) *FetchCommand {
	fc.token = token
	return fc
}

func (fc *FetchCommand) SetRetries(retries, retryWaitMilliSecs int) *FetchCommand {
	fc.retries = retries
	fc.retryWaitMilliSecs = retryWaitMilliSecs
	return fc
}

func (fc *FetchCommand) SetFormat(format string) *FetchCommand {
	fc.format = format
	return fc
}

func (fc *FetchCommand) SetLister(lister hub.Lister) *FetchCommand {
	fc.lister = lister
	return fc
}

func (fc *FetchCommand) SetOutputDir(outputDir string) *FetchCommand {
	fc.outputDir = outputDir
	return fc
}

func (fc *FetchCommand) SetKeepArchives(keepArchives bool) *FetchCommand {
	fc.keepArchives = keepArchives
	return fc
}

// SetExtractDir expands every archive into a single directory instead of next to the archive.
func (fc *FetchCommand) SetExtractDir(extractDir string) *FetchCommand {
	fc.extractDir = extractDir
	return fc
}

func (fc *FetchCommand) SetUseSystemTar(useSystemTar bool) *FetchCommand {
	fc.useSystemTar = useSystemTar
	return fc
}

func (fc *FetchCommand) SetThreads(threads int) *FetchCommand {
	fc.threads = threads
	return fc
}

func (fc *FetchCommand) SetDryRun(dryRun bool) *FetchCommand {
	fc.dryRun = dryRun
	return fc
}

func (fc *FetchCommand) SetBackend(backend string) *FetchCommand {
	fc.backend = backend
	return fc
}

func (fc *FetchCommand) SetHfTransfer(hfTransfer bool) *FetchCommand {
	fc.hfTransfer = hfTransfer
	return fc
}

// SetProgress shows a progress bar per downloaded file on stderr.
func (fc *FetchCommand) SetProgress(progress bool) *FetchCommand {
	fc.progress = progress
	return fc
}

func (fc *FetchCommand) SetTransferCommand(transferCommand string) *FetchCommand {
	fc.transferCommand = transferCommand
	return fc
}

// SetPassThroughArgs sets the arguments forwarded verbatim to the transfer command.
func (fc *FetchCommand) SetPassThroughArgs(args []string) *FetchCommand {
	fc.passThroughArgs = args
	return fc
}

func (fc *FetchCommand) SetBuildConfiguration(buildConfiguration *buildUtils.BuildConfiguration) *FetchCommand {
	fc.buildConfiguration = buildConfiguration
	return fc
}

func (fc *FetchCommand) SetDownloader(downloader hub.Downloader) *FetchCommand {
	fc.downloader = downloader
	return fc
}

func (fc *FetchCommand) CommandName() string {
	return "hf_datasets_fetch"
}

// Result is the summary of the last run.
func (fc *FetchCommand) Result() *stats.FetchStats {
	return fc.result
}

func (fc *FetchCommand) Run() error {
	datasetId, err := fc.validate()
	if err != nil {
		return err
	}
	if fc.outputDir == "" {
		return errorutils.CheckErrorf("the --output-dir option is mandatory")
	}
	if !hub.IsSupportedBackend(fc.backend) {
		return errorutils.CheckErrorf("unsupported backend '%s'. Possible values: %s, %s", fc.backend, hub.BackendHttp, hub.BackendCli)
	}

	// Nothing touches the disk before the dataset resolved.
	assets, err := fc.listAssets(datasetId)
	if err != nil {
		return err
	}
	datasetDir := filepath.Join(fc.outputDir, datasetId.LocalDirName())
	transferCmd := fc.newTransferCommand(datasetDir)
	fc.result = newFetchStats(datasetId, fc.getRevision(), datasetDir, assets)
	fc.result.DryRun = fc.dryRun
	if transferCmd != nil {
		fc.result.TransferCommand = transferCmd.CommandLine()
	}

	if fc.dryRun {
		log.Info("Dry run: nothing is downloaded, extracted or transferred")
		return fc.printResult()
	}

	if err = fileutils.CreateDirIfNotExist(datasetDir); err != nil {
		return err
	}
	downloader, err := fc.getDownloader()
	if err != nil {
		return err
	}
	localFiles, err := downloader.Download(datasetId, fc.getRevision(), assets.All(), datasetDir)
	if err != nil {
		return err
	}
	addDownloads(fc.result, localFiles)

	if err = fc.extractArchives(localFiles); err != nil {
		return err
	}
	if err = fc.collectBuildInfo(datasetId, localFiles); err != nil {
		return err
	}

	var transferErr error
	if transferCmd == nil {
		log.Info("No transfer arguments were given, skipping the transfer step")
	} else {
		transferErr = transferCmd.Run()
	}
	if err = fc.printResult(); err != nil {
		return err
	}
	return transferErr
}

func (fc *FetchCommand) listAssets(datasetId hub.DatasetId) (hub.Assets, error) {
	lister, err := fc.getLister()
	if err != nil {
		return hub.Assets{}, err
	}
	log.Info(fmt.Sprintf("Listing the files of dataset %s at revision %s", datasetId, fc.getRevision()))
	files, err := lister.ListRepoFiles(datasetId, fc.getRevision())
	if err != nil {
		return hub.Assets{}, err
	}
	assets := hub.ClassifyFiles(files)
	if assets.IsEmpty() {
		return hub.Assets{}, errorutils.CheckError(fmt.Errorf("%w in dataset %s", hub.ErrNoAssets, datasetId))
	}
	log.Info(fmt.Sprintf("Found %d parquet files and %d tar archives (%s)",
		len(assets.Parquet), len(assets.Archives), stats.FormatSize(assets.TotalSize())))
	return assets, nil
}

func (fc *FetchCommand) getDownloader() (hub.Downloader, error) {
	if fc.downloader != nil {
		return fc.downloader, nil
	}
	if fc.backend == hub.BackendCli {
		return hub.NewCliDownloader().
			SetEndpoint(fc.endpoint).
			SetToken(hub.ResolveToken(fc.token)).
			SetEnableHfTransfer(fc.hfTransfer), nil
	}
	client, err := fc.newClient()
	if err != nil {
		return nil, err
	}
	httpDownloader := hub.NewHttpDownloader(client).SetThreads(fc.threads)
	if fc.progress {
		httpDownloader.SetProgressOutput(os.Stderr)
	}
	return httpDownloader, nil
}

func (fc *FetchCommand) extractArchives(localFiles []hub.LocalFile) error {
	var archives []string
	for _, localFile := range localFiles {
		if hub.IsTarArchive(localFile.Remote.Path) {
			archives = append(archives, localFile.LocalPath)
		}
	}
	if len(archives) == 0 {
		log.Debug("No tar archives to extract")
		return nil
	}
	results, err := extract.NewExtractor().
		SetTargetDir(fc.extractDir).
		SetKeepArchives(fc.keepArchives).
		SetUseSystemTar(fc.useSystemTar).
		SetThreads(fc.threads).
		ExtractAll(archives)
	addExtractions(fc.result, results)
	return err
}

// newTransferCommand returns nil when no pass-through arguments were given.
func (fc *FetchCommand) newTransferCommand(datasetDir string) *transfer.StorageCopyCommand {
	if len(fc.passThroughArgs) == 0 {
		return nil
	}
	sourceDir := datasetDir
	if fc.extractDir != "" {
		sourceDir = fc.extractDir
	}
	return transfer.NewStorageCopyCommand().
		SetExecutable(fc.transferCommand).
		SetSourceDir(sourceDir).
		SetArgs(fc.passThroughArgs)
}

func (fc *FetchCommand) printResult() error {
	return stats.NewGenericResultsWriter(fc.result, fc.format, stats.DefaultDisplayLimit).Print()
}
