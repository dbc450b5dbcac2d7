package hub

import (
	"strings"
	"unicode"

	"github.com/jfrog/jfrog-client-go/utils/errorutils"
)

// DatasetId identifies a dataset repository on the hub, e.g. "ai4bharat/Svarah".
type DatasetId struct {
	Owner string
	Name  string
}

// ParseDatasetId validates the owner/name shape of a dataset identifier.
// Nothing beyond the string shape is checked; existence is resolved by the lister.
func ParseDatasetId(id string) (DatasetId, error) {
	if id == "" {
		return DatasetId{}, errorutils.CheckErrorf("dataset identifier cannot be empty")
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return DatasetId{}, errorutils.CheckErrorf("invalid dataset identifier '%s': whitespace is not allowed", id)
	}
	parts := strings.Split(id, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return DatasetId{}, errorutils.CheckErrorf("invalid dataset identifier '%s': expected the form <owner>/<name>", id)
	}
	return DatasetId{Owner: parts[0], Name: parts[1]}, nil
}

func (d DatasetId) String() string {
	return d.Owner + "/" + d.Name
}

// LocalDirName is the folder name the dataset is materialized under.
func (d DatasetId) LocalDirName() string {
	return d.Name
}
