package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/release-sync/internal/domain/release"
	"github.com/oshokin/release-sync/internal/logger"
	"github.com/oshokin/release-sync/internal/repository/project"
)

var (
	// ErrMissingTag is returned when the latest release has no tag name.
	ErrMissingTag = errors.New("latest release has no tag_name")
	// ErrUnsafeAssetName is returned when an asset name cannot be used as a file name.
	ErrUnsafeAssetName = errors.New("unsafe asset name")
)

// ReleaseClient fetches release metadata and assets.
type ReleaseClient interface {
	LatestRelease(ctx context.Context, repo release.Repository) (*release.Release, error)
	DownloadAsset(ctx context.Context, asset release.Asset, destination string) error
}

// ProjectStore reads and replaces project directories.
type ProjectStore interface {
	Version(ctx context.Context, repo release.Repository) (string, error)
	Stage(ctx context.Context, repo release.Repository) (*project.Staging, error)
}

// Synchronizer reconciles one repository at a time.
type Synchronizer struct {
	// client talks to the release API.
	client ReleaseClient
	// store holds the project directories.
	store ProjectStore
	// fetchedAt is recorded verbatim in metadata; empty means null.
	fetchedAt string
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(client ReleaseClient, store ProjectStore, fetchedAt string) *Synchronizer {
	return &Synchronizer{
		client:    client,
		store:     store,
		fetchedAt: fetchedAt,
	}
}

// Sync mirrors the latest release of repo and reports whether the project
// directory changed. Nothing on disk is touched until the release metadata
// has been validated, and a failed download leaves the previous directory as it was.
func (s *Synchronizer) Sync(ctx context.Context, repo release.Repository) (bool, error) {
	ctx = logger.WithKV(ctx, "repository", repo.String())

	logger.Debug(ctx, "Fetching latest release")

	rel, err := s.client.LatestRelease(ctx, repo)
	if err != nil {
		return false, fmt.Errorf("fetch latest release of %s: %w", repo, err)
	}

	if rel.Tag == "" {
		return false, fmt.Errorf("%s: %w", repo, ErrMissingTag)
	}

	current, err := s.store.Version(ctx, repo)
	if err != nil {
		return false, fmt.Errorf("%s: %w", repo, err)
	}

	if current == rel.Tag {
		logger.InfoKV(ctx, "Already at latest release", "tag", rel.Tag)
		return false, nil
	}

	logger.InfoKV(ctx, "New release found", "current", current, "latest", rel.Tag, "assets", len(rel.Assets))

	if err = s.replace(ctx, repo, rel); err != nil {
		return false, fmt.Errorf("mirror %s %s: %w", repo, rel.Tag, err)
	}

	logger.InfoKV(ctx, "Release mirrored", "tag", rel.Tag)

	return true, nil
}

// replace assembles rel in a staging directory and swaps it into place.
func (s *Synchronizer) replace(ctx context.Context, repo release.Repository, rel *release.Release) error {
	staging, err := s.store.Stage(ctx, repo)
	if err != nil {
		return err
	}

	defer func() {
		if discardErr := staging.Discard(); discardErr != nil {
			logger.WarnKV(ctx, "Unable to remove staging directory", "path", staging.Dir(), "error", discardErr)
		}
	}()

	if err = s.downloadAssets(ctx, staging, rel.Assets); err != nil {
		return err
	}

	if err = staging.WriteVersion(rel.Tag); err != nil {
		return err
	}

	if err = staging.WriteMetadata(release.NewMetadata(repo, rel, s.fetchedAt)); err != nil {
		return err
	}

	return staging.Commit(ctx)
}

// downloadAssets stores every named asset in the staging directory.
// A later asset with the same name overwrites an earlier one.
func (s *Synchronizer) downloadAssets(ctx context.Context, staging *project.Staging, assets []release.Asset) error {
	if len(assets) == 0 {
		logger.Info(ctx, "Release has no assets, skipping download")
		return nil
	}

	for _, asset := range assets {
		if asset.Name == "" {
			logger.DebugKV(ctx, "Skipping asset without a name", "url", asset.URL)
			continue
		}

		destination, err := staging.AssetPath(asset.Name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnsafeAssetName, err)
		}

		logger.InfoKV(ctx, "Downloading asset", "asset", asset.Name)

		if err = s.client.DownloadAsset(ctx, asset, destination); err != nil {
			return fmt.Errorf("download asset %q: %w", asset.Name, err)
		}
	}

	return nil
}
