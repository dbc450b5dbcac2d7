package main

import (
	"os"

	"github.com/jfrog/jfrog-cli-hf-datasets/cli"
	"github.com/jfrog/jfrog-cli-hf-datasets/commonutils"
	"github.com/jfrog/jfrog-cli-hf-datasets/config"
	datasetsCLI "github.com/jfrog/jfrog-cli-hf-datasets/datasets/cli"
	"github.com/jfrog/jfrog-cli-core/v2/plugins/components"
	coreLog "github.com/jfrog/jfrog-cli-core/v2/utils/log"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const logLevelEnv = "JFROG_CLI_LOG_LEVEL"

func main() {
	applyConfiguredLogLevel()
	coreLog.SetDefaultLogger()
	err := run(os.Args)
	if err != nil {
		log.Error(err.Error())
	}
	os.Exit(commonutils.GetExitCode(err))
}

func run(args []string) error {
	cliArgs, passThroughArgs := commonutils.SplitPassThroughArgs(args, datasetsCLI.PassThroughMarker)
	jfrogApp := cli.GetHfDatasetsApp(passThroughArgs)
	app, err := components.ConvertApp(jfrogApp)
	if err != nil {
		return err
	}
	return app.Run(commonutils.WithDefaultCommand(cliArgs, cli.GetCommandNames(jfrogApp), datasetsCLI.Fetch))
}

// applyConfiguredLogLevel lets log.level from the config file stand in for an unset JFROG_CLI_LOG_LEVEL.
func applyConfiguredLogLevel() {
	if os.Getenv(logLevelEnv) != "" {
		return
	}
	datasetsConfig, err := config.LoadConfig()
	if err != nil || datasetsConfig.Log.Level == "" {
		return
	}
	_ = os.Setenv(logLevelEnv, datasetsConfig.Log.Level)
}
