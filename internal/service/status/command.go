package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/oshokin/release-sync/internal/config"
	"github.com/oshokin/release-sync/internal/domain/release"
	"github.com/oshokin/release-sync/internal/logger"
	"github.com/oshokin/release-sync/internal/repository/project"
)

// missing marks a value that has not been recorded.
const missing = "-"

// Options are inputs accepted by the status entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ArtifactsDir overrides the configured artifacts directory.
	ArtifactsDir string
	// Output receives the table; standard output when nil.
	Output io.Writer
}

// Row is the stored state of one repository.
type Row struct {
	Repository  release.Repository
	Tag         string
	PublishedAt string
	FetchedAt   string
	Assets      int
	Synced      bool
}

// Run prints a table describing the mirrored state of every configured repository.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-sync-status")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.ArtifactsDir != "" {
		cfg.ArtifactsDir = opts.ArtifactsDir
	}

	rows, err := Collect(ctx, project.NewFileRepository(cfg.ArtifactsDir), cfg.Targets())
	if err != nil {
		return err
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	render(output, rows)

	return nil
}

// Collect reads the stored state of repos in order.
func Collect(ctx context.Context, store *project.FileRepository, repos []release.Repository) ([]Row, error) {
	rows := make([]Row, 0, len(repos))

	for _, repo := range repos {
		row := Row{Repository: repo}

		snapshot, err := store.Inspect(ctx, repo)

		switch {
		case errors.Is(err, project.ErrNotFound):
			logger.DebugKV(ctx, "Repository was never synchronized", "repository", repo.String())
		case err != nil:
			return nil, fmt.Errorf("inspect %s: %w", repo, err)
		default:
			row.Synced = snapshot.Version != ""
			row.Tag = snapshot.Version
			row.Assets = len(snapshot.Assets)

			if meta := snapshot.Metadata; meta != nil {
				row.PublishedAt = deref(meta.PublishedAt)
				row.FetchedAt = deref(meta.FetchedAt)
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// render writes rows as a table.
func render(w io.Writer, rows []Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Repository", "Directory", "Tag", "Published at", "Fetched at", "Assets"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
	})

	synced := 0

	for _, row := range rows {
		assets := missing
		if row.Synced {
			assets = strconv.Itoa(row.Assets)
			synced++
		}

		t.AppendRow(table.Row{
			row.Repository.String(),
			row.Repository.Dir(),
			orMissing(row.Tag),
			orMissing(row.PublishedAt),
			orMissing(row.FetchedAt),
			assets,
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "Synchronized", fmt.Sprintf("%d/%d", synced, len(rows))})
	t.Render()
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}

	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
