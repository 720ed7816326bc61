package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/oshokin/release-sync/internal/domain/release"
)

// Load reads the configuration from path, applies environment overrides and validates it.
// A missing file is only an error when the path was given explicitly.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("artifacts_dir", defaults.ArtifactsDir)
	v.SetDefault("api_base_url", defaults.APIBaseURL)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("show_progress", defaults.ShowProgress)
	v.SetDefault("fail_fast", defaults.FailFast)
	v.SetDefault("repositories", DefaultRepositories())

	// Credentials keep their conventional names instead of the prefixed form.
	if err := v.BindEnv("token", TokenEnv); err != nil {
		return nil, fmt.Errorf("bind %s: %w", TokenEnv, err)
	}

	if err := v.BindEnv("fetched_at", FetchedAtEnv); err != nil {
		return nil, fmt.Errorf("bind %s: %w", FetchedAtEnv, err)
	}

	if err := readFile(v, path, explicit); err != nil {
		return nil, err
	}

	cfg := new(Config)

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		StringToRepositoryHookFunc(),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readFile merges the YAML file at path into v.
func readFile(v *viper.Viper, path string, explicit bool) error {
	path = filepath.Clean(path)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}

		return fmt.Errorf("read settings: %w", err)
	}

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	return nil
}

// StringToRepositoryHookFunc decodes "owner/name" strings into Repository entries.
func StringToRepositoryHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(Repository{}) {
			return data, nil
		}

		s, ok := data.(string)
		if !ok {
			return data, nil
		}

		repo, err := release.ParseRepository(s)
		if err != nil {
			return nil, err
		}

		return Repository{Owner: repo.Owner, Name: repo.Name}, nil
	}
}
