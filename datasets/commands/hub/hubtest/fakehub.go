package hubtest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeHub serves the tree and resolve endpoints of a single dataset repository.
type FakeHub struct {
	Server *httptest.Server
	// ListStatus, when set, is returned by the tree endpoint instead of the listing.
	ListStatus int
	// PageSize splits the listing into pages linked through the Link header. Zero disables paging.
	PageSize int
	// Lfs marks every served file as an LFS file carrying the sha256 of its content.
	Lfs bool
	// CorruptLfsOid serves a wrong LFS oid for the given paths.
	CorruptLfsOid map[string]bool

	datasetId string
	files     map[string][]byte
	mutex     sync.Mutex
	downloads []string
	tokens    []string
}

func NewFakeHub(t *testing.T, datasetId string, files map[string][]byte) *FakeHub {
	hub := &FakeHub{datasetId: datasetId, files: files, CorruptLfsOid: map[string]bool{}}
	hub.Server = httptest.NewServer(http.HandlerFunc(hub.serve))
	t.Cleanup(hub.Server.Close)
	return hub
}

func (fh *FakeHub) Url() string {
	return fh.Server.URL
}

// Downloads returns the repository paths requested through the resolve endpoint, in request order.
func (fh *FakeHub) Downloads() []string {
	fh.mutex.Lock()
	defer fh.mutex.Unlock()
	return append([]string(nil), fh.downloads...)
}

// Tokens returns the bearer tokens seen by the fake, one per request.
func (fh *FakeHub) Tokens() []string {
	fh.mutex.Lock()
	defer fh.mutex.Unlock()
	return append([]string(nil), fh.tokens...)
}

func (fh *FakeHub) serve(w http.ResponseWriter, r *http.Request) {
	fh.mutex.Lock()
	fh.tokens = append(fh.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	fh.mutex.Unlock()

	treePrefix := "/api/datasets/" + fh.datasetId + "/tree/"
	resolvePrefix := "/datasets/" + fh.datasetId + "/resolve/"
	switch {
	case strings.HasPrefix(r.URL.Path, treePrefix):
		fh.serveTree(w, r)
	case strings.HasPrefix(r.URL.Path, resolvePrefix):
		rest := strings.TrimPrefix(r.URL.Path, resolvePrefix)
		// Drop the revision segment.
		if slash := strings.Index(rest, "/"); slash >= 0 {
			rest = rest[slash+1:]
		}
		fh.serveFile(w, rest)
	default:
		http.Error(w, `{"error":"Repository not found"}`, http.StatusNotFound)
	}
}

func (fh *FakeHub) serveTree(w http.ResponseWriter, r *http.Request) {
	if fh.ListStatus != 0 {
		w.WriteHeader(fh.ListStatus)
		_, _ = w.Write([]byte(`{"error":"fake hub error"}`))
		return
	}
	entries := fh.treeEntries()
	if fh.PageSize > 0 {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		start := page * fh.PageSize
		end := start + fh.PageSize
		if end < len(entries) {
			next := fmt.Sprintf("%s%s?recursive=true&page=%d", fh.Server.URL, r.URL.Path, page+1)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		} else {
			end = len(entries)
		}
		if start > len(entries) {
			start = len(entries)
		}
		entries = entries[start:end]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (fh *FakeHub) treeEntries() []map[string]any {
	paths := make([]string, 0, len(fh.files))
	for filePath := range fh.files {
		paths = append(paths, filePath)
	}
	sort.Strings(paths)
	entries := []map[string]any{{"type": "directory", "oid": "0", "size": 0, "path": "data"}}
	for _, filePath := range paths {
		content := fh.files[filePath]
		entry := map[string]any{"type": "file", "oid": "blob-" + filePath, "size": len(content), "path": filePath}
		if fh.Lfs {
			oid := Sha256(content)
			if fh.CorruptLfsOid[filePath] {
				oid = Sha256([]byte("corrupt"))
			}
			entry["lfs"] = map[string]any{"oid": oid, "size": len(content), "pointerSize": 132}
		}
		entries = append(entries, entry)
	}
	return entries
}

func (fh *FakeHub) serveFile(w http.ResponseWriter, repoPath string) {
	content, ok := fh.files[repoPath]
	if !ok {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	}
	fh.mutex.Lock()
	fh.downloads = append(fh.downloads, repoPath)
	fh.mutex.Unlock()
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write(content)
}

func Sha256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
