package project

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oshokin/release-sync/internal/domain/release"
	"github.com/oshokin/release-sync/internal/logger"
)

const (
	// VersionFilename holds the last synchronized tag.
	VersionFilename = "version.txt"
	// MetadataFilename holds the metadata record of the synchronized release.
	MetadataFilename = "metadata.json"

	// DirMode is the permission of project directories.
	DirMode os.FileMode = 0o755
	// FileMode is the permission of the marker and metadata files.
	FileMode os.FileMode = 0o644

	stagingInfix = ".staging-"
	backupInfix  = ".old-"
)

// ErrNotFound is returned when a repository has never been synchronized.
var ErrNotFound = errors.New("project not found")

// FileRepository stores project directories below a root directory.
type FileRepository struct {
	// root is the artifacts directory.
	root string
}

// Snapshot describes what is currently stored for a repository.
type Snapshot struct {
	// Version is the stored tag, empty when the marker is missing.
	Version string
	// Metadata is the stored record, nil when missing or unreadable.
	Metadata *release.Metadata
	// Assets lists the asset file names in lexical order.
	Assets []string
}

// NewFileRepository creates a repository rooted at root.
func NewFileRepository(root string) *FileRepository {
	return &FileRepository{
		root: filepath.Clean(root),
	}
}

// Root returns the artifacts directory.
func (r *FileRepository) Root() string {
	return r.root
}

// Path returns the project directory of repo.
func (r *FileRepository) Path(repo release.Repository) string {
	return filepath.Join(r.root, repo.Dir())
}

// Version returns the stored tag of repo, or an empty string when there is none.
func (r *FileRepository) Version(_ context.Context, repo release.Repository) (string, error) {
	contents, err := os.ReadFile(filepath.Join(r.Path(repo), VersionFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("read version marker: %w", err)
	}

	return strings.TrimSpace(string(contents)), nil
}

// Inspect reads the stored state of repo.
func (r *FileRepository) Inspect(ctx context.Context, repo release.Repository) (*Snapshot, error) {
	dir := r.Path(repo)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read project directory: %w", err)
	}

	version, err := r.Version(ctx, repo)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Version: version,
		Assets:  make([]string, 0, len(entries)),
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == VersionFilename || name == MetadataFilename {
			continue
		}

		snapshot.Assets = append(snapshot.Assets, name)
	}

	sort.Strings(snapshot.Assets)

	contents, err := os.ReadFile(filepath.Join(dir, MetadataFilename))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read metadata: %w", err)
	default:
		var meta release.Metadata
		if err = json.Unmarshal(contents, &meta); err != nil {
			logger.WarnKV(ctx, "Ignoring unreadable metadata", "path", filepath.Join(dir, MetadataFilename), "error", err)
		} else {
			snapshot.Metadata = &meta
		}
	}

	return snapshot, nil
}

// Stage creates an empty staging directory next to the project directory of repo.
// Leftovers of interrupted runs for the same repository are removed first.
func (r *FileRepository) Stage(ctx context.Context, repo release.Repository) (*Staging, error) {
	if err := os.MkdirAll(r.root, DirMode); err != nil {
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}

	r.removeLeftovers(ctx, repo)

	dir, err := os.MkdirTemp(r.root, "."+repo.Dir()+stagingInfix+"*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	return &Staging{
		root:  r.root,
		name:  repo.Dir(),
		dir:   dir,
		final: r.Path(repo),
	}, nil
}

// removeLeftovers deletes staging and backup directories of repo left by a crash.
func (r *FileRepository) removeLeftovers(ctx context.Context, repo release.Repository) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return
	}

	prefixes := []string{
		"." + repo.Dir() + stagingInfix,
		"." + repo.Dir() + backupInfix,
	}

	for _, entry := range entries {
		for _, prefix := range prefixes {
			if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
				continue
			}

			path := filepath.Join(r.root, entry.Name())
			logger.InfoKV(ctx, "Removing leftover directory", "path", path)

			if err = os.RemoveAll(path); err != nil {
				logger.WarnKV(ctx, "Unable to remove leftover directory", "path", path, "error", err)
			}
		}
	}
}

// encodeMetadata renders meta with sorted keys, two-space indentation
// and without escaping HTML or non-ASCII characters.
func encodeMetadata(meta *release.Metadata) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(meta); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
