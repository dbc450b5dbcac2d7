package hub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/jfrog/jfrog-client-go/http/jfroghttpclient"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/io/httputils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const (
	DefaultEndpoint = "https://huggingface.co"
	DefaultRevision = "main"

	datasetTreeApi      = "%s/api/datasets/%s/tree/%s?recursive=true"
	datasetResolveUrl   = "%s/datasets/%s/resolve/%s/%s"
	datasetAgreementUrl = "%s/datasets/%s"
)

var nextLinkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Lister returns the files of a dataset repository at a revision.
type Lister interface {
	ListRepoFiles(datasetId DatasetId, revision string) ([]RepoFile, error)
}

type ClientOptions struct {
	Endpoint           string
	Token              string
	Retries            int
	RetryWaitMilliSecs int
}

// Client talks to the hub REST API.
type Client struct {
	endpoint   string
	token      string
	httpClient *jfroghttpclient.JfrogHttpClient
}

func NewClient(options ClientOptions) (*Client, error) {
	endpoint := strings.TrimSuffix(options.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient, err := jfroghttpclient.JfrogClientBuilder().
		SetRetries(options.Retries).
		SetRetryWaitMilliSecs(options.RetryWaitMilliSecs).
		Build()
	if err != nil {
		return nil, errorutils.CheckError(err)
	}
	return &Client{endpoint: endpoint, token: options.Token, httpClient: httpClient}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// ListRepoFiles walks the whole repository tree, following the pagination links the hub returns.
func (c *Client) ListRepoFiles(datasetId DatasetId, revision string) ([]RepoFile, error) {
	if revision == "" {
		revision = DefaultRevision
	}
	nextUrl := fmt.Sprintf(datasetTreeApi, c.endpoint, datasetId.String(), url.PathEscape(revision))
	var files []RepoFile
	for nextUrl != "" {
		log.Debug("Listing dataset files:", nextUrl)
		resp, body, _, err := c.httpClient.SendGet(nextUrl, true, c.httpDetails())
		if err != nil {
			return nil, errorutils.CheckErrorf("failed to list files of dataset %s: %w", datasetId, err)
		}
		if err = c.checkResponse(resp, body, datasetId); err != nil {
			return nil, err
		}
		var page []RepoFile
		if err = json.Unmarshal(body, &page); err != nil {
			return nil, errorutils.CheckErrorf("failed to parse the file list of dataset %s: %w", datasetId, err)
		}
		files = append(files, page...)
		nextUrl = parseNextLink(resp.Header.Get("Link"))
	}
	log.Debug(fmt.Sprintf("Dataset %s has %d entries at revision %s", datasetId, len(files), revision))
	return files, nil
}

// ResolveUrl is the download URL of a single repository file.
func (c *Client) ResolveUrl(datasetId DatasetId, revision, filePath string) string {
	if revision == "" {
		revision = DefaultRevision
	}
	return fmt.Sprintf(datasetResolveUrl, c.endpoint, datasetId.String(), url.PathEscape(revision), escapePath(filePath))
}

// OpenFile starts streaming a repository file. The caller closes the returned body.
func (c *Client) OpenFile(datasetId DatasetId, revision, filePath string) (io.ReadCloser, error) {
	fileUrl := c.ResolveUrl(datasetId, revision, filePath)
	log.Debug("Downloading:", fileUrl)
	body, resp, err := c.httpClient.ReadRemoteFile(fileUrl, c.httpDetails())
	if resp != nil && resp.StatusCode != http.StatusOK {
		if body != nil {
			_ = body.Close()
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, errorutils.CheckError(fmt.Errorf("%w: %s in dataset %s", ErrFileNotFound, filePath, datasetId))
		}
		return nil, c.checkResponse(resp, nil, datasetId)
	}
	if err != nil {
		if body != nil {
			_ = body.Close()
		}
		return nil, errorutils.CheckErrorf("failed to download %s: %w", filePath, err)
	}
	return body, nil
}

func (c *Client) httpDetails() *httputils.HttpClientDetails {
	details := httputils.HttpClientDetails{Headers: map[string]string{}}
	if c.token != "" {
		details.Headers["Authorization"] = "Bearer " + c.token
	}
	return &details
}

func (c *Client) checkResponse(resp *http.Response, body []byte, datasetId DatasetId) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return errorutils.CheckError(fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetId))
	case http.StatusUnauthorized:
		if c.token == "" {
			return errorutils.CheckError(fmt.Errorf("%w: %s (the dataset may be private; provide an access token with --token or HF_TOKEN)", ErrDatasetNotFound, datasetId))
		}
		return errorutils.CheckError(fmt.Errorf("%w: %s (the provided token has no access to it)", ErrDatasetNotFound, datasetId))
	case http.StatusForbidden:
		return errorutils.CheckError(fmt.Errorf("%w: accept the conditions of %s on the hub before downloading",
			ErrDatasetGated, fmt.Sprintf(datasetAgreementUrl, c.endpoint, datasetId)))
	default:
		return errorutils.CheckErrorf("hub responded with status %d for dataset %s: %s", resp.StatusCode, datasetId, strings.TrimSpace(string(body)))
	}
}

func parseNextLink(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	match := nextLinkPattern.FindStringSubmatch(linkHeader)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func escapePath(filePath string) string {
	segments := strings.Split(filePath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
