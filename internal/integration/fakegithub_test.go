package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

const testToken = "integration-token"

// fakeAsset is an asset served by fakeGitHub.
type fakeAsset struct {
	name    string
	content string
}

// fakeGitHub is an httptest server speaking the subset of the REST API used by release-sync.
type fakeGitHub struct {
	*httptest.Server

	mu       sync.Mutex
	releases map[string]map[string]any
	assets   map[string]string

	hits          atomic.Int64
	assetRequests atomic.Int64
}

// newFakeGitHub starts a server that is closed when the test ends.
func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()

	f := &fakeGitHub{
		releases: make(map[string]map[string]any),
		assets:   make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{name}/releases/latest", f.latestRelease)
	mux.HandleFunc("GET /assets/{id}", f.asset)

	f.Server = httptest.NewServer(f.authorized(mux))
	t.Cleanup(f.Close)

	return f
}

// publish makes tag the latest release of owner/name.
func (f *fakeGitHub) publish(owner, name, tag string, assets ...fakeAsset) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := make([]map[string]any, 0, len(assets))

	for _, asset := range assets {
		id := fmt.Sprintf("%d", len(f.assets)+1)
		f.assets[id] = asset.content

		list = append(list, map[string]any{
			"name":                 asset.name,
			"url":                  f.URL + "/assets/" + id,
			"browser_download_url": "https://github.test/" + owner + "/" + name + "/" + asset.name,
		})
	}

	f.releases[owner+"/"+name] = map[string]any{
		"id":           len(f.releases) + 100,
		"tag_name":     tag,
		"html_url":     "https://github.test/" + owner + "/" + name + "/releases/tag/" + tag,
		"published_at": "2024-06-01T12:00:00Z",
		"assets":       list,
	}
}

// authorized rejects requests without the expected token and counts the rest.
func (f *fakeGitHub) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)

		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (f *fakeGitHub) latestRelease(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	rel, ok := f.releases[r.PathValue("owner")+"/"+r.PathValue("name")]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))

		return
	}

	_ = json.NewEncoder(w).Encode(rel)
}

func (f *fakeGitHub) asset(w http.ResponseWriter, r *http.Request) {
	f.assetRequests.Add(1)

	if r.Header.Get("Accept") != "application/octet-stream" {
		http.Error(w, "asset metadata requested instead of contents", http.StatusNotAcceptable)
		return
	}

	f.mu.Lock()
	content, ok := f.assets[r.PathValue("id")]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write([]byte(content))
}
