//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/release-sync/internal/logger"
)

// MarkerFilename marks that a synchronization is running in the directory.
const MarkerFilename = ".release-sync.pid"

// ErrAlreadyRunning is returned when another live process holds the run marker.
var ErrAlreadyRunning = errors.New("another synchronization is already running")

// RunMarker is a PID file guarding a directory against parallel runs.
type RunMarker struct {
	// path is the marker file location.
	path string
}

// AcquireRunMarker writes the current PID into dir. A marker left by a process
// that no longer exists is taken over.
func AcquireRunMarker(ctx context.Context, dir string) (*RunMarker, error) {
	path := filepath.Join(dir, MarkerFilename)

	logger.DebugKV(ctx, "Checking for the presence of a run marker", "path", path)

	if running, pid := isHolderAlive(path); running {
		return nil, fmt.Errorf("%w (pid %d, marker %s)", ErrAlreadyRunning, pid, path)
	}

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid), 0o644); err != nil {
		return nil, fmt.Errorf("write run marker: %w", err)
	}

	return &RunMarker{path: path}, nil
}

// Release removes the marker.
func (m *RunMarker) Release(ctx context.Context) {
	if m == nil {
		return
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove run marker", "path", m.path, "error", err)
	}
}

// isHolderAlive reports whether the marker at path belongs to another live process.
func isHolderAlive(path string) (bool, int) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return false, pid
	}

	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return false, pid
	}

	return true, pid
}
