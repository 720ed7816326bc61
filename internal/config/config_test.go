package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-sync/internal/domain/release"
)

// TestValidate checks required fields, defaults and directory collisions.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	cfg := Default()
	cfg.Timeout = 0
	cfg.APIBaseURL = "https://ghe.example.com/api/v3"
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, "https://ghe.example.com/api/v3/", cfg.APIBaseURL)

	cfg = Default()
	cfg.APIBaseURL = "not a url"
	require.ErrorIs(t, Validate(cfg), errInvalidBaseURL)

	cfg = Default()
	cfg.ArtifactsDir = " "
	require.ErrorIs(t, Validate(cfg), errArtifactsDirRequired)

	cfg = Default()
	cfg.Repositories = nil
	require.ErrorIs(t, Validate(cfg), ErrNoRepositories)

	cfg = Default()
	cfg.Repositories = []Repository{
		{Owner: "alice", Name: "tool"},
		{Owner: "bob", Name: "Tool"},
	}
	require.ErrorIs(t, Validate(cfg), ErrDuplicateDirectory)

	cfg.Repositories[1].Directory = "bob-tool"
	require.NoError(t, Validate(cfg))

	cfg.Repositories[1].Directory = "../bob"
	require.ErrorIs(t, Validate(cfg), release.ErrUnsafePathElement)
}

// TestRequireToken ensures blank tokens are rejected.
func TestRequireToken(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, RequireToken(nil), ErrTokenRequired)
	require.ErrorIs(t, RequireToken(&Config{Token: "  "}), ErrTokenRequired)
	require.NoError(t, RequireToken(&Config{Token: "ghp_x"}))
}

// TestDefault_Targets verifies the built-in repository list.
func TestDefault_Targets(t *testing.T) {
	t.Parallel()

	targets := Default().Targets()
	require.Len(t, targets, len(DefaultRepositories()))
	require.Equal(t, release.Repository{Owner: "zhaochengcube", Name: "augment-token-mng"}, targets[0])
	require.Equal(t, "wuqi-y/auto-cursor-releases", targets[4].String())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Setenv(TokenEnv, "ghp_roundtrip")
	t.Setenv(FetchedAtEnv, "")

	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	cfg := Default()
	cfg.ArtifactsDir = "mirror"
	cfg.Timeout = 45 * time.Second
	cfg.Token = "must-not-be-saved"
	cfg.SetTargets([]release.Repository{
		{Owner: "octo", Name: "cat"},
		{Owner: "octo", Name: "dog", Directory: "octo-dog"},
	})

	require.NoError(t, Save(path, cfg))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "must-not-be-saved")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mirror", loaded.ArtifactsDir)
	require.Equal(t, 45*time.Second, loaded.Timeout)
	require.Equal(t, "ghp_roundtrip", loaded.Token)
	require.Equal(t, cfg.Targets(), loaded.Targets())
}

// TestLoad_StringRepositoriesAndEnv covers owner/name strings and environment overrides.
func TestLoad_StringRepositoriesAndEnv(t *testing.T) {
	t.Setenv(TokenEnv, "ghp_env")
	t.Setenv(FetchedAtEnv, "2024-05-01T10:00:00Z")
	t.Setenv(EnvPrefix+"_ARTIFACTS_DIR", "from-env")

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := `repositories:
  - octo/cat
  - owner: octo
    name: dog
    directory: octo-dog
fail_fast: true
timeout: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.ArtifactsDir)
	require.Equal(t, "2024-05-01T10:00:00Z", cfg.FetchedAt)
	require.True(t, cfg.FailFast)
	require.Equal(t, 90*time.Second, cfg.Timeout)
	require.Equal(t, []release.Repository{
		{Owner: "octo", Name: "cat"},
		{Owner: "octo", Name: "dog", Directory: "octo-dog"},
	}, cfg.Targets())
}

// TestLoad_MissingFile distinguishes the default path from an explicit one.
func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().Targets(), cfg.Targets())
	require.ErrorIs(t, RequireToken(cfg), ErrTokenRequired)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoad_InvalidRepository rejects malformed repository strings.
func TestLoad_InvalidRepository(t *testing.T) {
	t.Setenv(TokenEnv, "")

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repositories:\n  - not-a-repo\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
