package github

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/oshokin/release-sync/internal/domain/release"
)

// releaseResponse models the fields of GET /repos/{owner}/{repo}/releases/latest
// that the mirror records. Assets stay raw because a malformed list must not
// fail the whole release.
type releaseResponse struct {
	TagName     string          `json:"tag_name"`
	ID          *int64          `json:"id"`
	HTMLURL     *string         `json:"html_url"`
	PublishedAt *string         `json:"published_at"`
	Assets      json.RawMessage `json:"assets"`
}

// assetResponse models a single entry of the assets array.
type assetResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// toDomain converts the payload, dropping asset entries that are not objects.
func (r *releaseResponse) toDomain() *release.Release {
	return &release.Release{
		Tag:         strings.TrimSpace(r.TagName),
		ID:          r.ID,
		HTMLURL:     r.HTMLURL,
		PublishedAt: r.PublishedAt,
		Assets:      parseAssets(r.Assets),
	}
}

// parseAssets decodes raw when it is a JSON array and returns an empty list otherwise.
func parseAssets(raw json.RawMessage) []release.Asset {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []release.Asset{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []release.Asset{}
	}

	assets := make([]release.Asset, 0, len(entries))

	for _, entry := range entries {
		var a assetResponse
		if err := json.Unmarshal(entry, &a); err != nil {
			continue
		}

		assets = append(assets, release.Asset{
			Name: strings.TrimSpace(a.Name),
			URL:  strings.TrimSpace(a.URL),
		})
	}

	return assets
}
