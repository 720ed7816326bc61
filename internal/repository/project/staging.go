package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oshokin/release-sync/internal/domain/release"
	"github.com/oshokin/release-sync/internal/logger"
)

// Staging is a directory where a release is assembled before it replaces
// the project directory.
type Staging struct {
	// root is the artifacts directory shared with the final path.
	root string
	// name is the project directory name.
	name string
	// dir is the staging directory.
	dir string
	// final is the project directory the staging directory replaces.
	final string
	// committed is set once dir has been renamed to final.
	committed bool
}

// Dir returns the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// AssetPath returns where an asset named name is stored inside the staging directory.
func (s *Staging) AssetPath(name string) (string, error) {
	if err := release.ValidatePathElement(name); err != nil {
		return "", err
	}

	return filepath.Join(s.dir, name), nil
}

// WriteVersion writes the version marker containing exactly tag.
func (s *Staging) WriteVersion(tag string) error {
	if err := os.WriteFile(filepath.Join(s.dir, VersionFilename), []byte(tag), FileMode); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}

	return nil
}

// WriteMetadata writes the metadata record.
func (s *Staging) WriteMetadata(meta *release.Metadata) error {
	data, err := encodeMetadata(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err = os.WriteFile(filepath.Join(s.dir, MetadataFilename), data, FileMode); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return nil
}

// Commit swaps the staging directory into place. The previous project
// directory is moved aside first and deleted only after the swap succeeded;
// if the swap fails it is moved back.
func (s *Staging) Commit(ctx context.Context) error {
	if s.committed {
		return nil
	}

	if err := os.Chmod(s.dir, DirMode); err != nil {
		return fmt.Errorf("chmod staging directory: %w", err)
	}

	var backup string

	switch _, err := os.Lstat(s.final); {
	case err == nil:
		backup = filepath.Join(s.root, "."+s.name+backupInfix+strconv.FormatInt(time.Now().UnixNano(), 10))
		if err = os.Rename(s.final, backup); err != nil {
			return fmt.Errorf("move previous directory aside: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat project directory: %w", err)
	}

	if err := os.Rename(s.dir, s.final); err != nil {
		if backup != "" {
			if restoreErr := os.Rename(backup, s.final); restoreErr != nil {
				logger.ErrorKV(ctx, "Unable to restore previous directory", "path", backup, "error", restoreErr)
			}
		}

		return fmt.Errorf("move staged directory into place: %w", err)
	}

	s.committed = true

	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			// The new release is in place; the backup is removed by the next sync.
			logger.WarnKV(ctx, "Unable to remove previous directory", "path", backup, "error", err)
		}
	}

	return nil
}

// Discard removes the staging directory unless it was committed.
func (s *Staging) Discard() error {
	if s.committed {
		return nil
	}

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove staging directory: %w", err)
	}

	return nil
}
