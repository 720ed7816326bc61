package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-sync/internal/domain/release"
)

// Config holds the settings of a synchronization run.
type Config struct {
	// ArtifactsDir is the root directory holding one subdirectory per repository.
	ArtifactsDir string `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
	// APIBaseURL is the GitHub REST API root, always with a trailing slash after Validate.
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`
	// Timeout bounds every HTTP request including asset downloads.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// ShowProgress enables download progress bars when stderr is a terminal.
	ShowProgress bool `mapstructure:"show_progress" yaml:"show_progress"`
	// FailFast stops the run at the first failing repository.
	FailFast bool `mapstructure:"fail_fast" yaml:"fail_fast"`
	// Repositories lists what to mirror, in order.
	Repositories []Repository `mapstructure:"repositories" yaml:"repositories"`
	// Token is the GitHub credential. It comes from the environment and is never saved.
	Token string `mapstructure:"token" yaml:"-"`
	// FetchedAt is copied verbatim into metadata records. It is never saved.
	FetchedAt string `mapstructure:"fetched_at" yaml:"-"`
}

// Repository is a configured repository entry.
// In YAML it is either an "owner/name" string or a mapping.
type Repository struct {
	Owner     string `mapstructure:"owner" yaml:"owner"`
	Name      string `mapstructure:"name" yaml:"name"`
	Directory string `mapstructure:"directory" yaml:"directory,omitempty"`
}

const (
	// DefaultConfigFilename is the configuration file looked up when none is given.
	DefaultConfigFilename = "release-sync.yaml"

	// DefaultArtifactsDir is the default root of mirrored repositories.
	DefaultArtifactsDir = "artifacts"

	// DefaultAPIBaseURL is the public GitHub REST API root.
	DefaultAPIBaseURL = "https://api.github.com/"

	// DefaultTimeout is the default bound of a single HTTP request.
	DefaultTimeout = 10 * time.Minute

	// DefaultUserAgent identifies the mirror to GitHub.
	DefaultUserAgent = "release-sync-bot"

	// DefaultFilePermissions is the permission of the saved configuration file.
	DefaultFilePermissions = 0o600

	// TokenEnv holds the GitHub credential.
	TokenEnv = "GITHUB_TOKEN"

	// FetchedAtEnv holds the optional run timestamp recorded as fetched_at.
	FetchedAtEnv = "GITHUB_RUN_DATETIME"

	// EnvPrefix prefixes environment overrides of configuration keys.
	EnvPrefix = "RELEASE_SYNC"
)

var (
	// ErrTokenRequired is returned when no GitHub token is configured.
	ErrTokenRequired = errors.New("missing " + TokenEnv + " environment variable")
	// ErrNoRepositories is returned when the repository list is empty.
	ErrNoRepositories = errors.New("no repositories configured")
	// ErrDuplicateDirectory is returned when two repositories share a local directory.
	ErrDuplicateDirectory = errors.New("repositories share a local directory")

	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errArtifactsDirRequired is returned when the artifacts root is empty.
	errArtifactsDirRequired = errors.New("artifacts directory must be provided")
	// errInvalidBaseURL is returned when the API root is not an absolute URL.
	errInvalidBaseURL = errors.New("invalid api base url")
)

// DefaultRepositories returns the repositories mirrored when no list is configured.
func DefaultRepositories() []string {
	return []string{
		"zhaochengcube/augment-token-mng",
		"zhaochengcube/augment-code-auto",
		"Zheng-up/augment-code-z",
		"Zheng-up/zAugment",
		"wuqi-y/auto-cursor-releases",
	}
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	cfg := &Config{
		ArtifactsDir: DefaultArtifactsDir,
		APIBaseURL:   DefaultAPIBaseURL,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		ShowProgress: true,
	}

	for _, s := range DefaultRepositories() {
		//nolint:errcheck // Default repositories are well-formed.
		repo, _ := release.ParseRepository(s)
		cfg.Repositories = append(cfg.Repositories, Repository{Owner: repo.Owner, Name: repo.Name})
	}

	return cfg
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the configuration and fills defaults for optional fields.
// The token is checked separately by RequireToken because read-only commands
// work without it.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.ArtifactsDir = strings.TrimSpace(cfg.ArtifactsDir)
	if cfg.ArtifactsDir == "" {
		return errArtifactsDirRequired
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	baseURL, err := url.ParseRequestURI(cfg.APIBaseURL)
	if err != nil || baseURL.Host == "" {
		return fmt.Errorf("%q: %w", cfg.APIBaseURL, errInvalidBaseURL)
	}

	if !strings.HasSuffix(cfg.APIBaseURL, "/") {
		cfg.APIBaseURL += "/"
	}

	if len(cfg.Repositories) == 0 {
		return ErrNoRepositories
	}

	seen := make(map[string]string, len(cfg.Repositories))

	for _, entry := range cfg.Repositories {
		repo := entry.Target()
		if err = repo.Validate(); err != nil {
			return err
		}

		// Directories are compared case-insensitively: on some filesystems
		// "Tool" and "tool" are the same directory.
		key := strings.ToLower(repo.Dir())
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%s and %s use %q: %w", other, repo, repo.Dir(), ErrDuplicateDirectory)
		}

		seen[key] = repo.String()
	}

	return nil
}

// RequireToken fails when no GitHub token is configured.
func RequireToken(cfg *Config) error {
	if cfg == nil || strings.TrimSpace(cfg.Token) == "" {
		return ErrTokenRequired
	}

	return nil
}

// Targets returns the configured repositories as domain values.
func (c *Config) Targets() []release.Repository {
	targets := make([]release.Repository, 0, len(c.Repositories))
	for _, entry := range c.Repositories {
		targets = append(targets, entry.Target())
	}

	return targets
}

// SetTargets replaces the repository list.
func (c *Config) SetTargets(targets []release.Repository) {
	c.Repositories = make([]Repository, 0, len(targets))
	for _, t := range targets {
		c.Repositories = append(c.Repositories, Repository{
			Owner:     t.Owner,
			Name:      t.Name,
			Directory: t.Directory,
		})
	}
}

// Target converts the entry into a domain repository.
func (r Repository) Target() release.Repository {
	return release.Repository{
		Owner:     strings.TrimSpace(r.Owner),
		Name:      strings.TrimSpace(r.Name),
		Directory: strings.TrimSpace(r.Directory),
	}
}
