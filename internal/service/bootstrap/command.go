package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/release-sync/internal/config"
	"github.com/oshokin/release-sync/internal/logger"
)

// Options contains inputs for the bootstrap entry point.
type Options struct {
	// ConfigPath is where the settings are written (defaults to release-sync.yaml).
	ConfigPath string
	// ArtifactsDir replaces the default artifacts directory when set.
	ArtifactsDir string
	// Force overwrites an existing file.
	Force bool
}

// ErrConfigExists is returned when the target file exists and Force is not set.
var ErrConfigExists = errors.New("settings file already exists")

// bootstrapper writes the starter configuration.
// It is unexported; callers should use Run.
type bootstrapper struct {
	// cfg is the configuration to persist.
	cfg *config.Config
	// cfgFilename is the path where configuration is saved.
	cfgFilename string
}

// Run writes the default configuration and logs what to do next.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-sync-init")

	b, err := newBootstrapper(opts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving settings", "path", b.cfgFilename)

	if err = config.Save(b.cfgFilename, b.cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	b.printNextSteps(ctx)

	return nil
}

// newBootstrapper checks the target path and prepares the default configuration.
func newBootstrapper(opts *Options) (*bootstrapper, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrConfigExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	cfg := config.Default()
	if opts.ArtifactsDir != "" {
		cfg.ArtifactsDir = opts.ArtifactsDir
	}

	return &bootstrapper{
		cfg:         cfg,
		cfgFilename: path,
	}, nil
}

// printNextSteps logs human-readable guidance for the first run.
func (b *bootstrapper) printNextSteps(ctx context.Context) {
	var builder strings.Builder

	builder.WriteString("Settings were written to ")
	builder.WriteString(b.cfgFilename)
	builder.WriteString(". The following repositories will be mirrored into ")
	builder.WriteString(b.cfg.ArtifactsDir)
	builder.WriteString(":\n")

	for i, repo := range b.cfg.Targets() {
		if i > 0 {
			builder.WriteString(",\n")
		}

		builder.WriteString(repo.String())
	}

	builder.WriteString("\n\nExport a token with read access to these repositories in ")
	builder.WriteString(config.TokenEnv)
	builder.WriteString(" and run: release-sync --config ")
	builder.WriteString(b.cfgFilename)

	logger.Info(ctx, builder.String())
}
