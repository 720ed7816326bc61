package syncer

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/oshokin/release-sync/internal/domain/release"
	"github.com/oshokin/release-sync/internal/github"
)

// fakeClient serves releases and asset contents from memory.
type fakeClient struct {
	mu sync.Mutex

	// releases maps owner/name to the latest release.
	releases map[string]*release.Release
	// contents maps asset URLs to their bytes.
	contents map[string]string
	// failURL makes the download of this URL fail.
	failURL string

	releaseCalls int
	downloads    []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		releases: make(map[string]*release.Release),
		contents: make(map[string]string),
	}
}

// publish registers rel for repo with assets named after the provided names.
func (f *fakeClient) publish(repo release.Repository, tag string, names ...string) *release.Release {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := int64(len(f.releases) + 1)
	htmlURL := fmt.Sprintf("https://github.com/%s/releases/tag/%s", repo, tag)
	publishedAt := "2024-05-01T10:00:00Z"

	rel := &release.Release{
		Tag:         tag,
		ID:          &id,
		HTMLURL:     &htmlURL,
		PublishedAt: &publishedAt,
		Assets:      []release.Asset{},
	}

	for i, name := range names {
		assetURL := fmt.Sprintf("https://api.github.test/repos/%s/releases/assets/%s/%d", repo, tag, i)
		rel.Assets = append(rel.Assets, release.Asset{Name: name, URL: assetURL})
		f.contents[assetURL] = fmt.Sprintf("%s@%s#%d", name, tag, i)
	}

	f.releases[repo.String()] = rel

	return rel
}

func (f *fakeClient) LatestRelease(_ context.Context, repo release.Repository) (*release.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseCalls++

	rel, ok := f.releases[repo.String()]
	if !ok {
		return nil, &github.NetworkError{
			URL:        github.LatestReleasePath(repo),
			StatusCode: http.StatusNotFound,
			Err:        fmt.Errorf("404 Not Found"),
		}
	}

	return rel, nil
}

func (f *fakeClient) DownloadAsset(_ context.Context, asset release.Asset, destination string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if asset.URL == "" {
		return github.ErrAssetURLMissing
	}

	if asset.URL == f.failURL {
		return &github.NetworkError{URL: asset.URL, StatusCode: http.StatusBadGateway, Err: fmt.Errorf("502")}
	}

	f.downloads = append(f.downloads, asset.Name)

	return os.WriteFile(destination, []byte(f.contents[asset.URL]), 0o644)
}

// readTree returns the contents of every regular file below dir keyed by relative path.
func readTree(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	tree := make(map[string]string, len(entries))

	for _, entry := range entries {
		contents, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			return nil, readErr
		}

		tree[entry.Name()] = string(contents)
	}

	return tree, nil
}

// names returns the sorted keys of tree.
func names(tree map[string]string) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
