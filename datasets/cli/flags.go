package cli

import (
	pluginsCommon "github.com/jfrog/jfrog-cli-core/v2/plugins/common"
	"github.com/jfrog/jfrog-cli-core/v2/plugins/components"
)

const (
	// Command keys
	Fetch = "fetch"
	List  = "list"

	// PassThroughMarker separates the tool's arguments from the ones forwarded to the transfer command.
	PassThroughMarker = "--gcloud"
)

const (
	// Hub flags keys
	revision = "revision"
	endpoint = "endpoint"
	token    = "token"
	format   = "format"

	// Fetch flags keys
	outputDir    = "output-dir"
	keepArchives = "keep-archives"
	extractDir   = "extract-dir"
	systemTar    = "system-tar"
	threads      = "threads"
	dryRun       = "dry-run"
	backend      = "backend"
	hfTransfer   = "hf-transfer"
	progress     = "progress"
	buildName    = "build-name"
	buildNumber  = "build-number"
	project      = "project"
	module       = "module"

	// List flags keys
	limit = "limit"
)

var flagsMap = map[string]components.Flag{
	revision: components.NewStringFlag(revision, "Dataset revision: a branch, tag or commit. Default: main.", components.SetMandatoryFalse()),
	endpoint: components.NewStringFlag(endpoint, "Hub endpoint URL. Can also be set with HF_ENDPOINT. Default: https://huggingface.co.", components.SetMandatoryFalse()),
	token:    components.NewStringFlag(token, "Hub access token for private or gated datasets. Falls back to HF_TOKEN and the stored hub token.", components.SetMandatoryFalse()),
	format:   components.NewStringFlag(format, "Summary output format. Supported formats: 'table', 'json' and 'text'. Default: table.", components.SetMandatoryFalse()),

	outputDir:    components.NewStringFlag(outputDir, "Local directory the dataset is downloaded under. Mandatory unless output.dir is configured.", components.SetMandatoryFalse()),
	keepArchives: components.NewBoolFlag(keepArchives, "Keep the tar archives after they were extracted.", components.WithBoolDefaultValueFalse()),
	extractDir:   components.NewStringFlag(extractDir, "Extract all archives into this directory instead of next to each archive. It is also the directory that is transferred.", components.SetMandatoryFalse()),
	systemTar:    components.NewBoolFlag(systemTar, "Extract with the tar executable, falling back to the built-in extractor when it fails.", components.WithBoolDefaultValueFalse()),
	threads:      components.NewStringFlag(threads, "Number of parallel downloads and extractions. Extraction uses at most 5. Default: 1.", components.SetMandatoryFalse()),
	dryRun:       components.NewBoolFlag(dryRun, "List the assets that would be fetched without downloading, extracting or transferring anything.", components.WithBoolDefaultValueFalse()),
	backend:      components.NewStringFlag(backend, "Download backend. 'http' downloads directly from the hub, 'cli' runs huggingface-cli. Default: http.", components.SetMandatoryFalse()),
	hfTransfer:   components.NewBoolFlag(hfTransfer, "Enable hf_transfer accelerated downloads when using the 'cli' backend.", components.WithBoolDefaultValueFalse()),
	progress:     components.NewBoolFlag(progress, "Show a progress bar for each downloaded file.", components.WithBoolDefaultValueFalse()),
	buildName:    components.NewStringFlag(buildName, "Build name. Records the downloaded assets as build dependencies.", components.SetMandatoryFalse()),
	buildNumber:  components.NewStringFlag(buildNumber, "Build number.", components.SetMandatoryFalse()),
	project:      components.NewStringFlag(project, "JFrog project key of the build.", components.SetMandatoryFalse()),
	module:       components.NewStringFlag(module, "Build module name. Default: the dataset ID.", components.SetMandatoryFalse()),

	limit: components.NewStringFlag(limit, "Maximum number of files shown in table and text output. 0 shows all. Default: 20.", components.SetMandatoryFalse()),
}

var commandFlags = map[string][]string{
	Fetch: {
		outputDir,
		keepArchives,
		revision,
		endpoint,
		token,
		extractDir,
		systemTar,
		threads,
		dryRun,
		backend,
		hfTransfer,
		progress,
		format,
		buildName,
		buildNumber,
		project,
		module,
	},
	List: {
		revision,
		endpoint,
		token,
		format,
		limit,
	},
}

func GetCommandFlags(cmdKey string) []components.Flag {
	return pluginsCommon.GetCommandFlags(cmdKey, commandFlags, flagsMap)
}
