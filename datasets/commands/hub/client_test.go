package hub

import (
	"io"
	"net/http"
	"testing"

	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub/hubtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDatasetId = DatasetId{Owner: "acme", Name: "speech"}

var testFiles = map[string][]byte{
	"README.md":          []byte("# speech"),
	"data/train.parquet": []byte("parquet-train"),
	"data/test.parquet":  []byte("parquet-test"),
	"audio/clips.tar":    []byte("not really a tar"),
}

func newTestClient(t *testing.T, endpoint, token string) *Client {
	client, err := NewClient(ClientOptions{Endpoint: endpoint, Token: token})
	require.NoError(t, err)
	return client
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	client := newTestClient(t, "", "")
	assert.Equal(t, DefaultEndpoint, client.Endpoint())

	client = newTestClient(t, "https://hub.example.com/", "")
	assert.Equal(t, "https://hub.example.com", client.Endpoint())
}

func TestClient_ListRepoFiles(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDatasetId.String(), testFiles)
	client := newTestClient(t, fakeHub.Url(), "")

	files, err := client.ListRepoFiles(testDatasetId, "")
	require.NoError(t, err)
	// One directory entry plus the files.
	assert.Len(t, files, len(testFiles)+1)

	assets := ClassifyFiles(files)
	assert.Equal(t, []string{"data/test.parquet", "data/train.parquet"}, repoPaths(assets.Parquet))
	assert.Equal(t, []string{"audio/clips.tar"}, repoPaths(assets.Archives))
}

func TestClient_ListRepoFilesFollowsPagination(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDatasetId.String(), testFiles)
	fakeHub.PageSize = 2
	client := newTestClient(t, fakeHub.Url(), "")

	files, err := client.ListRepoFiles(testDatasetId, DefaultRevision)
	require.NoError(t, err)
	assert.Len(t, files, len(testFiles)+1)
}

func TestClient_ListRepoFilesErrors(t *testing.T) {
	testCases := []struct {
		testName string
		status   int
		token    string
		expected error
	}{
		{"not found", http.StatusNotFound, "", ErrDatasetNotFound},
		{"unauthorized anonymous", http.StatusUnauthorized, "", ErrDatasetNotFound},
		{"unauthorized with token", http.StatusUnauthorized, "hf_abc", ErrDatasetNotFound},
		{"gated", http.StatusForbidden, "hf_abc", ErrDatasetGated},
	}
	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			fakeHub := hubtest.NewFakeHub(t, testDatasetId.String(), testFiles)
			fakeHub.ListStatus = tc.status
			client := newTestClient(t, fakeHub.Url(), tc.token)

			files, err := client.ListRepoFiles(testDatasetId, "")
			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, files)
		})
	}
}

func TestClient_ListRepoFilesUnexpectedStatus(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDatasetId.String(), testFiles)
	fakeHub.ListStatus = http.StatusBadRequest
	client := newTestClient(t, fakeHub.Url(), "")

	_, err := client.ListRepoFiles(testDatasetId, "")
	assert.ErrorContains(t, err, "status 400")
}

func TestClient_ListRepoFilesUnknownDataset(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDatasetId.String(), testFiles)
	client := newTestClient(t, fakeHub.Url(), "")

	_, err := client.ListRepoFiles(DatasetId{Owner: "acme", Name: "missing"}, "")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestClient_SendsToken(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDatasetId.String(), testFiles)
	client := newTestClient(t, fakeHub.Url(), "hf_secret")

	_, err := client.ListRepoFiles(testDatasetId, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hf_secret"}, fakeHub.Tokens())
}

func TestClient_OpenFile(t *testing.T) {
	fakeHub := hubtest.NewFakeHub(t, testDatasetId.String(), testFiles)
	client := newTestClient(t, fakeHub.Url(), "")

	body, err := client.OpenFile(testDatasetId, "", "data/train.parquet")
	require.NoError(t, err)
	content, err := io.ReadAll(body)
	assert.NoError(t, err)
	assert.NoError(t, body.Close())
	assert.Equal(t, "parquet-train", string(content))

	_, err = client.OpenFile(testDatasetId, "", "data/missing.parquet")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.NotErrorIs(t, err, ErrDatasetNotFound)
	assert.ErrorContains(t, err, "data/missing.parquet")
}

func TestClient_ResolveUrl(t *testing.T) {
	client := newTestClient(t, "https://hub.example.com", "")
	assert.Equal(t, "https://hub.example.com/datasets/acme/speech/resolve/main/data/train%20set.parquet",
		client.ResolveUrl(testDatasetId, "", "data/train set.parquet"))
	assert.Equal(t, "https://hub.example.com/datasets/acme/speech/resolve/refs%2Fconvert%2Fparquet/a.parquet",
		client.ResolveUrl(testDatasetId, "refs/convert/parquet", "a.parquet"))
}

func TestParseNextLink(t *testing.T) {
	assert.Empty(t, parseNextLink(""))
	assert.Empty(t, parseNextLink(`<https://hub/prev>; rel="prev"`))
	assert.Equal(t, "https://hub/next?cursor=abc", parseNextLink(`<https://hub/next?cursor=abc>; rel="next"`))
}
