package cli

import (
	"strconv"

	"github.com/jfrog/jfrog-cli-hf-datasets/commonutils"
	"github.com/jfrog/jfrog-cli-hf-datasets/config"
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/fetch"
	fetchDocs "github.com/jfrog/jfrog-cli-hf-datasets/datasets/docs/fetch"
	listDocs "github.com/jfrog/jfrog-cli-hf-datasets/datasets/docs/list"
	"github.com/jfrog/jfrog-cli-hf-datasets/stats"
	buildUtils "github.com/jfrog/jfrog-cli-core/v2/common/build"
	"github.com/jfrog/jfrog-cli-core/v2/common/commands"
	pluginsCommon "github.com/jfrog/jfrog-cli-core/v2/plugins/common"
	"github.com/jfrog/jfrog-cli-core/v2/plugins/components"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const datasetsCategory = "Datasets"

var (
	execFunc   = commands.Exec
	loadConfig = config.LoadConfig
)

// GetCommands returns the dataset commands. passThroughArgs are the arguments found after --gcloud.
func GetCommands(passThroughArgs []string) []components.Command {
	return []components.Command{
		{
			Name:        Fetch,
			Aliases:     []string{"f"},
			Flags:       GetCommandFlags(Fetch),
			Description: fetchDocs.GetDescription(),
			Arguments:   fetchDocs.GetArguments(),
			Action: func(c *components.Context) error {
				return fetchCmd(c, passThroughArgs)
			},
			Category: datasetsCategory,
		},
		{
			Name:        List,
			Aliases:     []string{"ls"},
			Flags:       GetCommandFlags(List),
			Description: listDocs.GetDescription(),
			Arguments:   listDocs.GetArguments(),
			Action:      listCmd,
			Category:    datasetsCategory,
		},
	}
}

func fetchCmd(c *components.Context, passThroughArgs []string) error {
	if err := validateDatasetArgument(c); err != nil {
		return err
	}
	datasetsConfig, err := loadConfig()
	if err != nil {
		return err
	}
	threadsCount, err := getThreads(c, datasetsConfig)
	if err != nil {
		return err
	}
	fetchCommand := fetch.NewFetchCommand().
		SetDatasetId(c.GetArgumentAt(0)).
		SetRevision(c.GetStringFlagValue(revision)).
		SetEndpoint(getStringFlagOrConfig(c, endpoint, datasetsConfig.Hub.Endpoint)).
		SetToken(getStringFlagOrConfig(c, token, datasetsConfig.Hub.Token)).
		SetRetries(datasetsConfig.Http.Retries, datasetsConfig.Http.RetryWaitMs).
		SetFormat(getFormat(c)).
		SetOutputDir(getStringFlagOrConfig(c, outputDir, datasetsConfig.Output.Dir)).
		SetKeepArchives(c.GetBoolFlagValue(keepArchives)).
		SetExtractDir(c.GetStringFlagValue(extractDir)).
		SetUseSystemTar(c.GetBoolFlagValue(systemTar)).
		SetThreads(threadsCount).
		SetDryRun(c.GetBoolFlagValue(dryRun)).
		SetBackend(getStringFlagOrConfig(c, backend, datasetsConfig.Hub.Backend)).
		SetHfTransfer(c.GetBoolFlagValue(hfTransfer)).
		SetProgress(c.GetBoolFlagValue(progress)).
		SetTransferCommand(datasetsConfig.Transfer.Command).
		SetPassThroughArgs(passThroughArgs)
	if c.GetStringFlagValue(buildName) != "" || c.GetStringFlagValue(buildNumber) != "" {
		fetchCommand.SetBuildConfiguration(buildUtils.NewBuildConfiguration(
			c.GetStringFlagValue(buildName),
			c.GetStringFlagValue(buildNumber),
			c.GetStringFlagValue(module),
			c.GetStringFlagValue(project)))
	}
	return execFunc(fetchCommand)
}

func listCmd(c *components.Context) error {
	if err := validateDatasetArgument(c); err != nil {
		return err
	}
	datasetsConfig, err := loadConfig()
	if err != nil {
		return err
	}
	displayLimit := stats.DefaultDisplayLimit
	if value := c.GetStringFlagValue(limit); value != "" {
		if displayLimit, err = strconv.Atoi(value); err != nil || displayLimit < 0 {
			return errorutils.CheckErrorf("the --%s option should have a non-negative numeric value", limit)
		}
	}
	listCommand := fetch.NewListCommand().
		SetDatasetId(c.GetArgumentAt(0)).
		SetRevision(c.GetStringFlagValue(revision)).
		SetEndpoint(getStringFlagOrConfig(c, endpoint, datasetsConfig.Hub.Endpoint)).
		SetToken(getStringFlagOrConfig(c, token, datasetsConfig.Hub.Token)).
		SetRetries(datasetsConfig.Http.Retries, datasetsConfig.Http.RetryWaitMs).
		SetFormat(getFormat(c)).
		SetDisplayLimit(displayLimit)
	return execFunc(listCommand)
}

func validateDatasetArgument(c *components.Context) error {
	if c.GetNumberOfArgs() == 1 {
		return nil
	}
	if c.PrintCommandHelp != nil {
		return pluginsCommon.WrongNumberOfArgumentsHandler(c)
	}
	return errorutils.CheckErrorf("wrong number of arguments (%d): expected a single <owner>/<name> dataset ID", c.GetNumberOfArgs())
}

// getStringFlagOrConfig returns the flag value when the flag was given and the configured value otherwise.
func getStringFlagOrConfig(c *components.Context, flagName, configValue string) string {
	if value := c.GetStringFlagValue(flagName); value != "" {
		return value
	}
	return configValue
}

func getThreads(c *components.Context, datasetsConfig *config.DatasetsConfig) (int, error) {
	if value := c.GetStringFlagValue(threads); value != "" {
		if !commonutils.IsFlagPositiveNumber(value) {
			return 0, errorutils.CheckErrorf("the --%s option should have a positive numeric value, got '%s'", threads, value)
		}
		return strconv.Atoi(value)
	}
	if datasetsConfig.Threads < 1 {
		log.Debug("Ignoring non-positive threads value from config:", datasetsConfig.Threads)
		return config.DefaultThreads, nil
	}
	return datasetsConfig.Threads, nil
}

func getFormat(c *components.Context) string {
	if c.GetStringFlagValue(format) == "" {
		return stats.FormatTable
	}
	return c.GetStringFlagValue(format)
}
