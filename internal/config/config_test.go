package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relbump "github.com/bcomnes/relbump/pkg"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("GITHUB_TOKEN", "")
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Dir", cfg.Dir, "."},
		{"Profile.Name", cfg.Profile.Name, "go"},
		{"Git.Remote", cfg.Git.Remote, "origin"},
		{"Git.Branch", cfg.Git.Branch, "main"},
		{"Git.FetchTags", cfg.Git.FetchTags, true},
		{"Git.Token", cfg.Git.Token, ""},
		{"Host.Backend", cfg.Host.Backend, BackendGH},
		{"Host.GHPath", cfg.Host.GHPath, "gh"},
		{"Host.APIURL", cfg.Host.APIURL, "https://api.github.com"},
		{"SemverPath", cfg.SemverPath, "semver"},
		{"CommitMessage", cfg.CommitMessage, "version bump"},
		{"Timeout", cfg.Timeout, 30 * time.Second},
		{"LogLevel", cfg.LogLevel, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	tests := []struct {
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{"RELBUMP_DIR", "/src/lib", func(c Config) any { return c.Dir }, "/src/lib"},
		{"RELBUMP_PROFILE_NAME", "java", func(c Config) any { return c.Profile.Name }, "java"},
		{"RELBUMP_GIT_BRANCH", "trunk", func(c Config) any { return c.Git.Branch }, "trunk"},
		{"RELBUMP_GIT_FETCH_TAGS", "false", func(c Config) any { return c.Git.FetchTags }, false},
		{"RELBUMP_HOST_BACKEND", "api", func(c Config) any { return c.Host.Backend }, "api"},
		{"RELBUMP_TIMEOUT", "5s", func(c Config) any { return c.Timeout }, 5 * time.Second},
		{"RELBUMP_LOG_LEVEL", "debug", func(c Config) any { return c.LogLevel }, "debug"},
		{"GITHUB_TOKEN", "ghp_fallback", func(c Config) any { return c.Host.Token }, "ghp_fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			resetViper(t)
			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.field(cfg))
		})
	}
}

func TestLoadTokenPrecedence(t *testing.T) {
	resetViper(t)
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")
	t.Setenv("RELBUMP_GIT_TOKEN", "ghp_git")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_git", cfg.Git.Token)
	assert.Equal(t, "ghp_fallback", cfg.Host.Token)
}

func TestLoadConfigFile(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), ".relbump.yaml")
	content := `
profile:
  name: java
  index: proxy
  module: github.com/seatsio/seatsio-java
  edits:
    - path: pom.xml
      old: "<version>{{.PreviousVersion}}</version>"
      new: "<version>{{.NextVersion}}</version>"
      mode: first
host:
  backend: api
  repo: seatsio/seatsio-java
timeout: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Minute, cfg.Timeout)

	p, err := cfg.ResolveProfile()
	require.NoError(t, err)
	assert.Equal(t, "java", p.Name)
	assert.Equal(t, relbump.StrategyCommand, p.Strategy)
	assert.Equal(t, relbump.IndexProxy, p.Index)
	assert.Equal(t, "github.com/seatsio/seatsio-java", p.Module)
	require.Len(t, p.Edits, 1)
	assert.Equal(t, "pom.xml", p.Edits[0].Path)
	assert.Equal(t, relbump.ReplaceFirst, p.Edits[0].Mode)
}

func TestResolveProfileDisableIndex(t *testing.T) {
	cfg := Config{Profile: ProfileConfig{Name: "go", Index: IndexDisabled, Strategy: relbump.StrategyCommand}}
	p, err := cfg.ResolveProfile()
	require.NoError(t, err)
	assert.Equal(t, relbump.IndexNone, p.Index)
	assert.Equal(t, relbump.StrategyCommand, p.Strategy)
	assert.Equal(t, relbump.GoProfile().Edits, p.Edits)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Profile:       ProfileConfig{Name: "go"},
			Host:          HostConfig{Backend: BackendGH},
			Timeout:       time.Second,
			CommitMessage: "version bump",
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Host.Backend = "gitlab" }},
		{"api without repo", func(c *Config) { c.Host.Backend = BackendAPI }},
		{"unknown profile", func(c *Config) { c.Profile.Name = "rust" }},
		{"unknown strategy", func(c *Config) { c.Profile.Strategy = "calendar" }},
		{"unknown index", func(c *Config) { c.Profile.Index = "npm" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"empty commit message", func(c *Config) { c.CommitMessage = "" }},
	}
	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), relbump.ErrInvalidInput)
		})
	}

	ok := valid()
	ok.Host = HostConfig{Backend: BackendAPI, Repo: "seatsio/seatsio-go"}
	assert.NoError(t, ok.Validate())
}
