package release

// Asset is a named binary file attached to a release.
type Asset struct {
	// Name is the file name of the asset; empty names are never downloaded.
	Name string
	// URL is the API URL of the asset, not the public browser download link.
	URL string
}

// Release is the latest published release of a repository.
//
// Optional fields are pointers so that values missing from the API response
// are persisted as null rather than as zero values.
type Release struct {
	// Tag is the tag name; it is the change-detection key.
	Tag string
	// ID is the numeric release identifier.
	ID *int64
	// HTMLURL is the web page of the release.
	HTMLURL *string
	// PublishedAt is the publish timestamp exactly as reported by the API.
	PublishedAt *string
	// Assets lists the files attached to the release.
	Assets []Asset
}

// Metadata is the record written next to the mirrored assets.
// Fields are declared in alphabetical order of their JSON keys
// so the encoded object has sorted keys.
type Metadata struct {
	FetchedAt   *string `json:"fetched_at"`
	HTMLURL     *string `json:"html_url"`
	PublishedAt *string `json:"published_at"`
	ReleaseID   *int64  `json:"release_id"`
	Repository  string  `json:"repository"`
	Tag         string  `json:"tag"`
}

// NewMetadata projects a release of repo into the persisted record.
// An empty fetchedAt is stored as null.
func NewMetadata(repo Repository, rel *Release, fetchedAt string) *Metadata {
	meta := &Metadata{
		HTMLURL:     rel.HTMLURL,
		PublishedAt: rel.PublishedAt,
		ReleaseID:   rel.ID,
		Repository:  repo.String(),
		Tag:         rel.Tag,
	}

	if fetchedAt != "" {
		meta.FetchedAt = &fetchedAt
	}

	return meta
}
