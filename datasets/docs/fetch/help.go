package fetch

import "github.com/jfrog/jfrog-cli-core/v2/plugins/components"

var Usage = []string{"hf-datasets fetch <dataset-id> --output-dir <dir> [command options] [--gcloud <args>...]"}

func GetDescription() string {
	return `Download the parquet files and tar archives of a Hugging Face dataset, expand the archives and copy the result to cloud storage.
                             Everything after --gcloud is forwarded verbatim to 'gcloud storage cp -r <dataset-dir>'.
                             When no command is given, fetch is assumed.`
}

func GetArguments() []components.Argument {
	return []components.Argument{
		{
			Name:        "dataset-id",
			Description: "The dataset repository ID in the form <owner>/<name> (e.g., 'ai4bharat/Svarah').",
		},
	}
}
