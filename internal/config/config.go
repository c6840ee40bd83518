// Package config loads relbump settings from .relbump.yaml, RELBUMP_*
// environment variables and command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bcomnes/relbump/internal/logging"
	relbump "github.com/bcomnes/relbump/pkg"
)

// EnvPrefix is prepended to every environment variable viper reads.
const EnvPrefix = "RELBUMP"

// Release host backends.
const (
	BackendGH  = "gh"
	BackendAPI = "api"
)

// IndexDisabled turns off package index notification for a profile that
// would otherwise have one.
const IndexDisabled = "none"

// ProfileConfig overrides parts of a built-in profile. Empty fields keep the
// built-in value.
type ProfileConfig struct {
	Name     string                 `mapstructure:"name"`
	Module   string                 `mapstructure:"module"`
	Strategy string                 `mapstructure:"strategy"`
	Edits    []relbump.EditTemplate `mapstructure:"edits"`
	Tree     *relbump.TreeTemplate  `mapstructure:"tree"`
	Index    string                 `mapstructure:"index"`
}

// GitConfig configures the go-git collaborator.
type GitConfig struct {
	Remote      string `mapstructure:"remote"`
	Branch      string `mapstructure:"branch"`
	Token       string `mapstructure:"token"`
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
	FetchTags   bool   `mapstructure:"fetch_tags"`
}

// HostConfig selects and configures the release host.
type HostConfig struct {
	Backend string `mapstructure:"backend"`
	GHPath  string `mapstructure:"gh_path"`
	Repo    string `mapstructure:"repo"`
	APIURL  string `mapstructure:"api_url"`
	Token   string `mapstructure:"token"`
}

// IndexConfig configures the package index client.
type IndexConfig struct {
	URL string `mapstructure:"url"`
}

// Config holds all runtime configuration for a release.
type Config struct {
	Dir           string        `mapstructure:"dir"`
	Profile       ProfileConfig `mapstructure:"profile"`
	Git           GitConfig     `mapstructure:"git"`
	Host          HostConfig    `mapstructure:"host"`
	Index         IndexConfig   `mapstructure:"index"`
	SemverPath    string        `mapstructure:"semver_path"`
	CommitMessage string        `mapstructure:"commit_message"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LogLevel      string        `mapstructure:"log_level"`
}

// SetupEnv makes viper read RELBUMP_* variables, with nested keys joined by
// underscores (RELBUMP_GIT_BRANCH). Tokens fall back to GITHUB_TOKEN.
func SetupEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("git.token", EnvPrefix+"_GIT_TOKEN", "GITHUB_TOKEN")
	_ = viper.BindEnv("host.token", EnvPrefix+"_HOST_TOKEN", "GITHUB_TOKEN")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	SetupEnv()

	viper.SetDefault("dir", ".")
	viper.SetDefault("profile.name", "go")
	viper.SetDefault("profile.module", "")
	viper.SetDefault("profile.strategy", "")
	viper.SetDefault("profile.index", "")
	viper.SetDefault("git.remote", "origin")
	viper.SetDefault("git.branch", "main")
	viper.SetDefault("git.token", "")
	viper.SetDefault("git.author_name", "")
	viper.SetDefault("git.author_email", "")
	viper.SetDefault("git.fetch_tags", true)
	viper.SetDefault("host.backend", BackendGH)
	viper.SetDefault("host.gh_path", "gh")
	viper.SetDefault("host.repo", "")
	viper.SetDefault("host.api_url", "https://api.github.com")
	viper.SetDefault("host.token", "")
	viper.SetDefault("index.url", "")
	viper.SetDefault("semver_path", "semver")
	viper.SetDefault("commit_message", relbump.DefaultCommitMessage)
	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("log_level", logging.LevelInfo)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: decoding configuration: %v", relbump.ErrInvalidInput, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a working release.
func (c Config) Validate() error {
	switch c.Host.Backend {
	case BackendGH:
	case BackendAPI:
		if c.Host.Repo == "" {
			return fmt.Errorf("%w: host.repo (owner/name) is required for the %s backend", relbump.ErrInvalidInput, BackendAPI)
		}
	default:
		return fmt.Errorf("%w: unknown host backend %q, expected %s or %s", relbump.ErrInvalidInput, c.Host.Backend, BackendGH, BackendAPI)
	}
	if _, err := relbump.LookupProfile(c.Profile.Name); err != nil {
		return err
	}
	switch c.Profile.Strategy {
	case "", relbump.StrategyLibrary, relbump.StrategyCommand:
	default:
		return fmt.Errorf("%w: unknown bump strategy %q", relbump.ErrInvalidInput, c.Profile.Strategy)
	}
	switch c.Profile.Index {
	case "", IndexDisabled, relbump.IndexPkgsite, relbump.IndexProxy:
	default:
		return fmt.Errorf("%w: unknown package index %q", relbump.ErrInvalidInput, c.Profile.Index)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", relbump.ErrInvalidInput, c.Timeout)
	}
	if c.CommitMessage == "" {
		return fmt.Errorf("%w: commit_message cannot be empty", relbump.ErrInvalidInput)
	}
	return nil
}

// ResolveProfile returns the named built-in profile with the configured
// overrides applied.
func (c Config) ResolveProfile() (relbump.Profile, error) {
	p, err := relbump.LookupProfile(c.Profile.Name)
	if err != nil {
		return p, err
	}
	if c.Profile.Module != "" {
		p.Module = c.Profile.Module
	}
	if c.Profile.Strategy != "" {
		p.Strategy = c.Profile.Strategy
	}
	if len(c.Profile.Edits) > 0 {
		p.Edits = c.Profile.Edits
	}
	if c.Profile.Tree != nil {
		p.Tree = c.Profile.Tree
	}
	switch c.Profile.Index {
	case "":
	case IndexDisabled:
		p.Index = relbump.IndexNone
	default:
		p.Index = c.Profile.Index
	}
	return p, nil
}
