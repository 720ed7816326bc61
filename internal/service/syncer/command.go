package syncer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/oshokin/release-sync/internal/config"
	"github.com/oshokin/release-sync/internal/domain/release"
	"github.com/oshokin/release-sync/internal/github"
	"github.com/oshokin/release-sync/internal/logger"
	"github.com/oshokin/release-sync/internal/repository/project"
	"github.com/oshokin/release-sync/internal/service/common"
	"github.com/oshokin/release-sync/internal/version"
)

// Options are inputs accepted by the synchronization entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ArtifactsDir overrides the configured artifacts directory.
	ArtifactsDir string
	// Repositories replaces the configured list with owner/name identifiers.
	Repositories []string
	// FailFast stops at the first failing repository regardless of the configuration.
	FailFast bool
	// Output receives the summary; standard output when nil.
	Output io.Writer
	// ProgressOutput receives download progress bars; nil disables them.
	ProgressOutput io.Writer
}

// Failure is a repository that could not be synchronized.
type Failure struct {
	Repository release.Repository
	Err        error
}

// Report is the outcome of a run.
type Report struct {
	// Changed lists repositories whose directory was replaced.
	Changed []release.Repository
	// Unchanged lists repositories already at the latest release.
	Unchanged []release.Repository
	// Failed lists repositories whose synchronization failed.
	Failed []Failure
	// Skipped lists repositories not attempted because the run stopped early.
	Skipped []release.Repository
}

// runner holds the state of a single synchronization run.
type runner struct {
	cfg     *config.Config
	targets []release.Repository
	sync    *Synchronizer
	output  io.Writer
}

// Run synchronizes every configured repository and prints a summary.
// It returns an error when configuration is invalid or any repository failed.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-sync")

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	marker, err := common.AcquireRunMarker(ctx, r.cfg.ArtifactsDir)
	if err != nil {
		return err
	}

	defer marker.Release(ctx)

	report, err := r.run(ctx)
	r.printSummary(report)

	return err
}

// newRunner loads configuration and wires the synchronizer.
// It fails before any network activity when the token is missing.
func newRunner(opts *Options) (*runner, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	if err = config.RequireToken(cfg); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(cfg.ArtifactsDir, project.DirMode); err != nil {
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}

	clientOptions := []github.Option{
		github.WithToken(cfg.Token),
		github.WithBaseURL(cfg.APIBaseURL),
		github.WithTimeout(cfg.Timeout),
		github.WithUserAgent(version.UserAgent(cfg.UserAgent)),
	}

	if cfg.ShowProgress && opts.ProgressOutput != nil {
		clientOptions = append(clientOptions, github.WithProgress(opts.ProgressOutput))
	}

	client, err := github.NewClient(clientOptions...)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	return &runner{
		cfg:     cfg,
		targets: cfg.Targets(),
		sync:    NewSynchronizer(client, project.NewFileRepository(cfg.ArtifactsDir), cfg.FetchedAt),
		output:  output,
	}, nil
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.ArtifactsDir != "" {
		cfg.ArtifactsDir = opts.ArtifactsDir
	}

	if opts.FailFast {
		cfg.FailFast = true
	}

	if len(opts.Repositories) > 0 {
		targets := make([]release.Repository, 0, len(opts.Repositories))

		for _, s := range opts.Repositories {
			repo, parseErr := release.ParseRepository(s)
			if parseErr != nil {
				return nil, parseErr
			}

			targets = append(targets, repo)
		}

		cfg.SetTargets(targets)
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// run synchronizes the targets in order. Failures are collected and the loop
// continues unless fail-fast is set or the context is done.
func (r *runner) run(ctx context.Context) (*Report, error) {
	var (
		report = new(Report)
		errs   error
	)

	logger.InfoKV(ctx, "Starting synchronization",
		"repositories", len(r.targets), "artifacts_dir", r.cfg.ArtifactsDir)

	for i, repo := range r.targets {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Skipped = append(report.Skipped, r.targets[i:]...)
			errs = multierr.Append(errs, fmt.Errorf("interrupted: %w", ctxErr))

			break
		}

		changed, err := r.sync.Sync(ctx, repo)
		if err != nil {
			logger.ErrorKV(ctx, "Synchronization failed", "repository", repo.String(), "error", err)

			report.Failed = append(report.Failed, Failure{Repository: repo, Err: err})
			errs = multierr.Append(errs, err)

			if r.cfg.FailFast {
				report.Skipped = append(report.Skipped, r.targets[i+1:]...)
				break
			}

			continue
		}

		if changed {
			report.Changed = append(report.Changed, repo)
		} else {
			report.Unchanged = append(report.Unchanged, repo)
		}
	}

	if errs != nil && len(report.Failed) > 0 {
		errs = fmt.Errorf("%d of %d repositories failed: %w", len(report.Failed), len(r.targets), errs)
	}

	return report, errs
}

// printSummary writes a human-readable outcome of the run.
func (r *runner) printSummary(report *Report) {
	var (
		builder strings.Builder
		changed = color.New(color.FgGreen)
		failed  = color.New(color.FgRed)
		skipped = color.New(color.FgYellow)
	)

	switch {
	case len(report.Changed) > 0:
		builder.WriteString("The following repositories were updated:\n")

		for _, repo := range report.Changed {
			builder.WriteString(changed.Sprint(repo.String()))
			builder.WriteString("\n")
		}
	case len(report.Failed) == 0 && len(report.Skipped) == 0:
		builder.WriteString("All repositories are up to date\n")
	default:
		builder.WriteString("No repositories were updated\n")
	}

	if len(report.Failed) > 0 {
		builder.WriteString("The following repositories failed:\n")

		for _, failure := range report.Failed {
			builder.WriteString(failed.Sprint(failure.Repository.String()))
			builder.WriteString(": ")
			builder.WriteString(failure.Err.Error())
			builder.WriteString("\n")
		}
	}

	if len(report.Skipped) > 0 {
		builder.WriteString("The following repositories were skipped:\n")

		for _, repo := range report.Skipped {
			builder.WriteString(skipped.Sprint(repo.String()))
			builder.WriteString("\n")
		}
	}

	_, _ = io.WriteString(r.output, builder.String())
}
