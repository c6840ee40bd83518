package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/bcomnes/relbump/internal/config"
	"github.com/bcomnes/relbump/internal/executor"
	"github.com/bcomnes/relbump/internal/github"
	"github.com/bcomnes/relbump/internal/gitvcs"
	"github.com/bcomnes/relbump/internal/pkgindex"
	relbump "github.com/bcomnes/relbump/pkg"
)

// buildOrchestrator wires the collaborators selected by cfg. forceTags lets
// the release tag fetch overwrite a local tag of the same name.
func buildOrchestrator(cfg config.Config, logger *zap.Logger, stderr io.Writer, forceTags bool) (*relbump.Orchestrator, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relbump.ErrInvalidInput, err)
	}
	profile, err := cfg.ResolveProfile()
	if err != nil {
		return nil, err
	}

	repo, err := gitvcs.Open(gitvcs.Options{
		Dir:         dir,
		Remote:      cfg.Git.Remote,
		Branch:      cfg.Git.Branch,
		Token:       cfg.Git.Token,
		AuthorName:  cfg.Git.AuthorName,
		AuthorEmail: cfg.Git.AuthorEmail,
		FetchTags:   cfg.Git.FetchTags,
		ForceTags:   forceTags,
		Logger:      logger.Named("git"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", relbump.ErrVCS, err)
	}

	exec := executor.New(logger.Named("exec"), executor.WithWorkingDir(dir))

	host, err := buildHost(cfg, dir, logger.Named("host"))
	if err != nil {
		return nil, err
	}

	index, err := pkgindex.New(profile.Index, pkgindex.Options{
		URL:     cfg.Index.URL,
		Timeout: cfg.Timeout,
		Logger:  logger.Named("index"),
	})
	if err != nil {
		return nil, err
	}

	var bumper relbump.Bumper = relbump.LibraryBumper{}
	if profile.Strategy == relbump.StrategyCommand {
		bumper = relbump.CommandBumper{Exec: exec, Path: cfg.SemverPath}
	}

	return &relbump.Orchestrator{
		VCS:           repo,
		Host:          host,
		Index:         index,
		Bumper:        bumper,
		Profile:       profile,
		Fs:            afero.NewBasePathFs(afero.NewOsFs(), dir),
		CommitMessage: cfg.CommitMessage,
		Logger:        logger,
		Stderr:        stderr,
	}, nil
}

func buildHost(cfg config.Config, dir string, logger *zap.Logger) (relbump.ReleaseHost, error) {
	if cfg.Host.Backend == config.BackendAPI {
		return github.NewAPI(cfg.Host.Repo, cfg.Host.Token, cfg.Git.Branch, logger,
			github.WithBaseURL(cfg.Host.APIURL),
			github.WithTimeout(cfg.Timeout),
		)
	}
	opts := []executor.Option{executor.WithWorkingDir(dir)}
	if cfg.Host.Token != "" {
		opts = append(opts, executor.WithEnvVar("GH_TOKEN", cfg.Host.Token))
	}
	return &github.CLI{
		Exec:   executor.New(logger, opts...),
		Path:   cfg.Host.GHPath,
		Repo:   cfg.Host.Repo,
		Dir:    dir,
		Logger: logger,
	}, nil
}
