package cli

import (
	datasetsCLI "github.com/jfrog/jfrog-cli-hf-datasets/datasets/cli"
	"github.com/jfrog/jfrog-cli-core/v2/plugins/components"
)

const (
	appName    = "hf-datasets"
	appVersion = "1.0.0"
)

// GetHfDatasetsApp builds the application. passThroughArgs are handed to the transfer step of fetch.
func GetHfDatasetsApp(passThroughArgs []string) components.App {
	app := components.App{}
	app.Name = appName
	app.Version = appVersion
	app.Description = "Fetch Hugging Face datasets, expand their archives and copy them to cloud storage."
	app.Commands = datasetsCLI.GetCommands(passThroughArgs)
	return app
}

// GetCommandNames returns every command name and alias the application answers to.
func GetCommandNames(app components.App) []string {
	var names []string
	for _, command := range app.Commands {
		names = append(names, command.Name)
		names = append(names, command.Aliases...)
	}
	return names
}
