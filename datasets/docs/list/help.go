package list

import "github.com/jfrog/jfrog-cli-core/v2/plugins/components"

var Usage = []string{"hf-datasets list <dataset-id>"}

func GetDescription() string {
	return "List the parquet files and tar archives of a Hugging Face dataset without downloading them."
}

func GetArguments() []components.Argument {
	return []components.Argument{
		{
			Name:        "dataset-id",
			Description: "The dataset repository ID in the form <owner>/<name>.",
		},
	}
}
