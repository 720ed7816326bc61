package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-sync/internal/config"
	"github.com/oshokin/release-sync/internal/service/syncer"
)

// setup writes a settings file pointing at the fake server and returns its path and the artifacts root.
func setup(t *testing.T, server *fakeGitHub, repos ...config.Repository) (string, string) {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	cfg := config.Default()
	cfg.ArtifactsDir = filepath.Join(dir, "artifacts")
	cfg.APIBaseURL = server.URL
	cfg.ShowProgress = false
	cfg.Repositories = repos

	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfgPath, cfg))

	return cfgPath, cfg.ArtifactsDir
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(contents)
}

// TestSync_RequiresToken makes no request when GITHUB_TOKEN is missing.
func TestSync_RequiresToken(t *testing.T) {
	server := newFakeGitHub(t)
	cfgPath, _ := setup(t, server, config.Repository{Owner: "acme", Name: "tool"})

	t.Setenv(config.TokenEnv, "")

	err := syncer.Run(context.Background(), &syncer.Options{ConfigPath: cfgPath, Output: new(bytes.Buffer)})
	require.ErrorIs(t, err, config.ErrTokenRequired)
	require.Zero(t, server.hits.Load())
}

// TestSync_MirrorsAndStaysIdempotent mirrors a release and leaves it untouched on the next run.
func TestSync_MirrorsAndStaysIdempotent(t *testing.T) {
	server := newFakeGitHub(t)
	server.publish("acme", "tool", "v2.0.0",
		fakeAsset{name: "a.zip", content: "alpha"},
		fakeAsset{name: "b.zip", content: "beta"},
	)

	cfgPath, artifacts := setup(t, server, config.Repository{Owner: "acme", Name: "tool"})

	t.Setenv(config.TokenEnv, testToken)
	t.Setenv(config.FetchedAtEnv, "2024-06-02T08:30:00Z")

	var output bytes.Buffer

	require.NoError(t, syncer.Run(context.Background(), &syncer.Options{ConfigPath: cfgPath, Output: &output}))
	require.Contains(t, output.String(), "The following repositories were updated:")
	require.Contains(t, output.String(), "acme/tool")

	project := filepath.Join(artifacts, "tool")
	require.Equal(t, "v2.0.0", readFile(t, filepath.Join(project, "version.txt")))
	require.Equal(t, "alpha", readFile(t, filepath.Join(project, "a.zip")))
	require.Equal(t, "beta", readFile(t, filepath.Join(project, "b.zip")))

	expected := `{
  "fetched_at": "2024-06-02T08:30:00Z",
  "html_url": "https://github.test/acme/tool/releases/tag/v2.0.0",
  "published_at": "2024-06-01T12:00:00Z",
  "release_id": 100,
  "repository": "acme/tool",
  "tag": "v2.0.0"
}`
	require.Equal(t, expected, readFile(t, filepath.Join(project, "metadata.json")))
	require.EqualValues(t, 2, server.assetRequests.Load())

	output.Reset()

	require.NoError(t, syncer.Run(context.Background(), &syncer.Options{ConfigPath: cfgPath, Output: &output}))
	require.Equal(t, "All repositories are up to date\n", output.String())
	require.EqualValues(t, 2, server.assetRequests.Load())

	entries, err := os.ReadDir(artifacts)
	require.NoError(t, err)
	require.Len(t, entries, 1, "run marker and staging directories must be removed")
}

// TestSync_ContinuesAfterFailedRepository syncs the remaining repositories when one is missing.
func TestSync_ContinuesAfterFailedRepository(t *testing.T) {
	server := newFakeGitHub(t)
	server.publish("acme", "first", "v1", fakeAsset{name: "first.bin", content: "1"})
	server.publish("acme", "third", "v3")

	cfgPath, artifacts := setup(t, server,
		config.Repository{Owner: "acme", Name: "first"},
		config.Repository{Owner: "acme", Name: "missing"},
		config.Repository{Owner: "acme", Name: "third"},
	)

	t.Setenv(config.TokenEnv, testToken)
	t.Setenv(config.FetchedAtEnv, "")

	var output bytes.Buffer

	err := syncer.Run(context.Background(), &syncer.Options{ConfigPath: cfgPath, Output: &output})
	require.Error(t, err)
	require.Contains(t, err.Error(), "acme/missing")
	require.Contains(t, err.Error(), "404")

	require.Equal(t, "v1", readFile(t, filepath.Join(artifacts, "first", "version.txt")))
	require.Equal(t, "v3", readFile(t, filepath.Join(artifacts, "third", "version.txt")))
	require.Contains(t, readFile(t, filepath.Join(artifacts, "third", "metadata.json")), `"fetched_at": null`)

	_, err = os.Stat(filepath.Join(artifacts, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.Contains(t, output.String(), "The following repositories failed:")
}

// TestSync_ArgumentsReplaceConfiguredList only mirrors the repositories given on the command line.
func TestSync_ArgumentsReplaceConfiguredList(t *testing.T) {
	server := newFakeGitHub(t)
	server.publish("acme", "tool", "v1")
	server.publish("acme", "other", "v9")

	cfgPath, artifacts := setup(t, server, config.Repository{Owner: "acme", Name: "tool"})

	t.Setenv(config.TokenEnv, testToken)

	err := syncer.Run(context.Background(), &syncer.Options{
		ConfigPath:   cfgPath,
		Repositories: []string{"acme/other"},
		Output:       new(bytes.Buffer),
	})
	require.NoError(t, err)

	require.Equal(t, "v9", readFile(t, filepath.Join(artifacts, "other", "version.txt")))

	_, err = os.Stat(filepath.Join(artifacts, "tool"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
